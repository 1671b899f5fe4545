package discovery

import "testing"

func TestLocalIPsSkipsLoopback(t *testing.T) {
	for _, ip := range localIPs() {
		if ip.IsLoopback() {
			t.Errorf("loopback address %v advertised", ip)
		}
		if ip.To4() == nil {
			t.Errorf("non-IPv4 address %v advertised", ip)
		}
	}
}

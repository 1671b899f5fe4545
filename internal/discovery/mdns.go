// Package discovery advertises the server on the local network over mDNS so
// clients on the same LAN can find it without configuration.
package discovery

import (
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_drawing-app._tcp"

// Advertiser announces one service instance until Shutdown.
type Advertiser struct {
	server *mdns.Server
}

// Advertise announces instance on port. txt entries are published as the TXT record.
func Advertise(instance string, port int, txt []string) (*Advertiser, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("get hostname: %w", err)
	}
	if instance == "" {
		instance = host
	}

	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, localIPs(), txt)
	if err != nil {
		return nil, fmt.Errorf("create mdns service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("start mdns server: %w", err)
	}
	slog.Info("advertising on mdns", "instance", instance, "service", ServiceType, "port", port)
	return &Advertiser{server: server}, nil
}

func (a *Advertiser) Shutdown() error {
	return a.server.Shutdown()
}

// localIPs returns the IPv4 addresses of the up, non-loopback interfaces, or nil to
// let mdns resolve the hostname itself.
func localIPs() []net.IP {
	var ips []net.IP
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP.To4())
			}
		}
	}
	return ips
}

package typeid

import (
	"strings"
	"testing"
)

func TestPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{"user", NewUserID, PrefixUser},
		{"client", NewClientID, PrefixClient},
		{"export", NewExportID, PrefixExport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.gen()
			if !strings.HasPrefix(id, tt.prefix+"_") {
				t.Errorf("id %q lacks prefix %q", id, tt.prefix)
			}
			if err := Validate(id, tt.prefix); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestValidateRejectsWrongPrefix(t *testing.T) {
	if err := Validate(NewUserID(), PrefixClient); err == nil {
		t.Error("expected prefix mismatch")
	}
	if err := Validate("not-an-id", PrefixUser); err == nil {
		t.Error("expected parse error")
	}
}

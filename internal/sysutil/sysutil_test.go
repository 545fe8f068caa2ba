package sysutil

import (
	"net"
	"testing"
)

func TestUptimeIsNonNegativeAndMonotonic(t *testing.T) {
	first := Uptime()
	second := Uptime()
	if second < first {
		t.Fatalf("uptime went backwards: %d -> %d", first, second)
	}
}

func TestIsCGNATAcceptsTailscaleRange(t *testing.T) {
	cases := map[string]bool{
		"100.64.0.1":  true,
		"100.100.1.1": true,
		"100.127.9.9": true,
		"100.63.0.1":  false,
		"100.128.0.1": false,
		"10.0.0.1":    false,
	}
	for ipStr, want := range cases {
		ip := net.ParseIP(ipStr)
		if got := isCGNAT(ip); got != want {
			t.Errorf("isCGNAT(%s) = %v, want %v", ipStr, got, want)
		}
	}
}

func TestHasTailscalePrefix(t *testing.T) {
	if !hasTailscalePrefix("tailscale0") {
		t.Error("expected tailscale0 to match")
	}
	if !hasTailscalePrefix("utun5") {
		t.Error("expected utun5 to match")
	}
	if hasTailscalePrefix("eth0") {
		t.Error("expected eth0 not to match")
	}
}

// Package sysutil probes local system facts the system plugin publishes
// over MQTT: process uptime and the node's Tailscale interface address.
// Grounded on original_source/src/utils/system.rs's interface-name
// heuristic (no sysinfo-equivalent Go library is in the example corpus,
// so the probe is reimplemented directly over net.Interfaces).
package sysutil

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

var processStart = startTime()

// startTime is a package-var seam so tests can't observe Uptime racing the
// package init instant; callers get it once, at import time.
func startTime() time.Time { return time.Now() }

// Uptime returns seconds elapsed since this process started.
func Uptime() uint64 {
	return uint64(time.Since(processStart).Seconds())
}

// tailscaleInterfacePrefixes are the interface name families a Tailscale
// client creates depending on OS (original_source checks both "tailscale"
// and the macOS utun family, disambiguated there by the CGNAT /8 prefix).
var tailscaleInterfacePrefixes = []string{"tailscale", "utun"}

// TailscaleIP scans network interfaces for one presenting a Tailscale
// address: either an interface literally named "tailscale*", or an IPv4
// address in Tailscale's 100.64.0.0/10 CGNAT range (observed on "utun*"
// interfaces on macOS).
func TailscaleIP() (string, bool) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", false
	}
	for _, iface := range ifaces {
		if !hasTailscalePrefix(iface.Name) {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ip := addrIP(addr)
			if ip == nil || ip.To4() == nil {
				continue
			}
			if strings.HasPrefix(iface.Name, "tailscale") || isCGNAT(ip) {
				return ip.String(), true
			}
		}
	}
	return "", false
}

func hasTailscalePrefix(name string) bool {
	for _, prefix := range tailscaleInterfacePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func addrIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPNet:
		return a.IP
	case *net.IPAddr:
		return a.IP
	default:
		return nil
	}
}

// thermalZonePath is where Linux single-board devices (the fleet's target
// hardware) expose their SoC temperature, in millidegrees Celsius.
const thermalZonePath = "/sys/class/thermal/thermal_zone0/temp"

// Temperature reads the node's SoC temperature in Celsius. Returns
// ok=false on any platform lacking thermalZonePath (desktops, CI, macOS),
// matching DevInfo.Temperature's optional-field semantics.
func Temperature() (float32, bool) {
	raw, err := os.ReadFile(thermalZonePath)
	if err != nil {
		return 0, false
	}
	milliC, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, false
	}
	return float32(milliC) / 1000.0, true
}

// isCGNAT reports whether ip falls in Tailscale's 100.64.0.0/10 range.
func isCGNAT(ip net.IP) bool {
	v4 := ip.To4()
	if v4 == nil {
		return false
	}
	return v4[0] == 100 && v4[1]&0xc0 == 64
}

package network

import (
	"context"
	"net"
)

// InterfaceProbe reports online when at least one non-loopback interface
// is up and has an address assigned. It does not contact any host.
func InterfaceProbe(_ context.Context) bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if !candidate(iface.Flags) {
			continue
		}
		addrs, err := iface.Addrs()
		if err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}

func candidate(flags net.Flags) bool {
	return flags&net.FlagUp != 0 && flags&net.FlagLoopback == 0
}

// StaticProbe always reports the given state.
func StaticProbe(online bool) Probe {
	return func(context.Context) bool { return online }
}

package sensor

import (
	"context"
	"net/netip"
)

// AnonymizationPolicy decides whether source addresses are coarsened.
type AnonymizationPolicy interface {
	AnonymizeIP(ctx context.Context) bool
}

// StaticPolicy is a fixed AnonymizationPolicy.
type StaticPolicy bool

func (p StaticPolicy) AnonymizeIP(context.Context) bool { return bool(p) }

// AnonymizeIP zeroes the host part of an address: the last octet of IPv4
// and everything past the first 48 bits of IPv6. Anything that does not
// parse as an address becomes "0.0.0.0".
func AnonymizeIP(raw string) string {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return "0.0.0.0"
	}
	addr = addr.Unmap()
	bits := 24
	if addr.Is6() {
		bits = 48
	}
	prefix, err := addr.WithZone("").Prefix(bits)
	if err != nil {
		return "0.0.0.0"
	}
	return prefix.Addr().String()
}

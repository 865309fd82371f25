// Package netutil holds the address arithmetic used by IP blocks.
package netutil

import (
	"errors"
	"fmt"
	"math/big"
	"net"
	"sort"
	"strconv"
	"strings"
)

func IsIP(s string) bool {
	return net.ParseIP(strings.TrimSpace(s)) != nil
}

// ParseNetmask accepts a dotted mask ("255.255.255.0") or a prefix length ("24" or "/24").
func ParseNetmask(s string) (net.IPMask, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("netutil: empty netmask")
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(s, "/")); err == nil {
		if n < 0 || n > 32 {
			return nil, fmt.Errorf("netutil: prefix length out of range: %d", n)
		}
		return net.CIDRMask(n, 32), nil
	}
	ip := net.ParseIP(s).To4()
	if ip == nil {
		return nil, fmt.Errorf("netutil: invalid netmask: %q", s)
	}
	mask := net.IPMask(ip)
	if ones, bits := mask.Size(); ones == 0 && bits == 0 {
		return nil, fmt.Errorf("netutil: non-canonical netmask: %q", s)
	}
	return mask, nil
}

// ParseAddress parses a CIDR or a single address (treated as a host network).
func ParseAddress(s string) (*net.IPNet, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		_, n, err := net.ParseCIDR(s)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("netutil: invalid address: %q", s)
	}
	if v4 := ip.To4(); v4 != nil {
		return &net.IPNet{IP: v4, Mask: net.CIDRMask(32, 32)}, nil
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(128, 128)}, nil
}

func copyIP(src net.IP) net.IP {
	dst := make(net.IP, len(src))
	copy(dst, src)
	return dst
}

func ipToBig(ip net.IP) (*big.Int, int) {
	if v4 := ip.To4(); v4 != nil {
		return new(big.Int).SetBytes(v4), 32
	}
	return new(big.Int).SetBytes(ip.To16()), 128
}

func bigToIP(n *big.Int, bits int) net.IP {
	b := n.Bytes()
	ip := make(net.IP, bits/8)
	copy(ip[len(ip)-len(b):], b)
	return ip
}

// LastIP returns the highest address of network.
func LastIP(network *net.IPNet) net.IP {
	ones, bits := network.Mask.Size()
	if ones == bits {
		return copyIP(network.IP)
	}
	start, width := ipToBig(network.IP)
	end := new(big.Int).Lsh(big.NewInt(1), uint(bits-ones))
	end.Sub(end, big.NewInt(1))
	end.Or(end, start)
	return bigToIP(end, width)
}

// InNetworks reports whether ip falls inside any of the given addresses.
func InNetworks(ip net.IP, addresses []string) bool {
	for _, a := range addresses {
		n, err := ParseAddress(a)
		if err != nil {
			continue
		}
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// span is an inclusive address range of one family.
type span struct {
	bits       int
	start, end *big.Int
}

func spanOf(n *net.IPNet) span {
	start, bits := ipToBig(n.IP)
	end, _ := ipToBig(LastIP(n))
	return span{bits: bits, start: start, end: end}
}

func (s span) size() *big.Int {
	n := new(big.Int).Sub(s.end, s.start)
	return n.Add(n, big.NewInt(1))
}

// mergeSpans sorts spans and joins the ones that overlap or touch.
func mergeSpans(in []span) []span {
	if len(in) == 0 {
		return nil
	}
	spans := append([]span(nil), in...)
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].bits != spans[j].bits {
			return spans[i].bits < spans[j].bits
		}
		return spans[i].start.Cmp(spans[j].start) < 0
	})
	out := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		next := new(big.Int).Add(last.end, big.NewInt(1))
		if s.bits == last.bits && s.start.Cmp(next) <= 0 {
			if s.end.Cmp(last.end) > 0 {
				last.end = s.end
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

func sumSpans(spans []span) *big.Int {
	total := new(big.Int)
	for _, s := range spans {
		total.Add(total, s.size())
	}
	return total
}

// Available counts the addresses of a block that are not excluded.
// Overlapping addresses are counted once, and excludes only subtract the
// part that lies inside the block.
func Available(addresses, excludes []string) (*big.Int, error) {
	var pool []span
	for _, a := range addresses {
		n, err := ParseAddress(a)
		if err != nil {
			return nil, err
		}
		pool = append(pool, spanOf(n))
	}
	pool = mergeSpans(pool)

	var clipped []span
	for _, e := range excludes {
		n, err := ParseAddress(e)
		if err != nil {
			return nil, err
		}
		ex := spanOf(n)
		for _, p := range pool {
			if p.bits != ex.bits {
				continue
			}
			lo, hi := p.start, p.end
			if ex.start.Cmp(lo) > 0 {
				lo = ex.start
			}
			if ex.end.Cmp(hi) < 0 {
				hi = ex.end
			}
			if lo.Cmp(hi) <= 0 {
				clipped = append(clipped, span{bits: p.bits, start: lo, end: hi})
			}
		}
	}

	total := sumSpans(pool)
	return total.Sub(total, sumSpans(mergeSpans(clipped))), nil
}

// GatewaySubnet is the network a gateway serves under netmask.
func GatewaySubnet(gateway, netmask string) (*net.IPNet, error) {
	ip := net.ParseIP(strings.TrimSpace(gateway))
	if ip == nil {
		return nil, fmt.Errorf("netutil: invalid gateway: %q", gateway)
	}
	v4 := ip.To4()
	if v4 == nil {
		return nil, fmt.Errorf("netutil: netmask applies to IPv4 gateways only: %q", gateway)
	}
	mask, err := ParseNetmask(netmask)
	if err != nil {
		return nil, err
	}
	return &net.IPNet{IP: v4.Mask(mask), Mask: mask}, nil
}

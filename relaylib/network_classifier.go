package relaylib

import (
	"fmt"
	"net"

	cidrman "github.com/EvilSuperstars/go-cidrman"
	"github.com/asergeyev/nradix"
)

// DefaultPrivateNetworksV4 and DefaultPrivateNetworksV6 are the
// networks which are never sent to geolocation providers: private,
// loopback, link-local, documentation and reserved ranges.
var (
	DefaultPrivateNetworksV4 = []string{
		"0.0.0.0/8",
		"10.0.0.0/8",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"172.16.0.0/12",
		"192.0.0.0/29",
		"192.0.0.170/31",
		"192.0.2.0/24",
		"192.168.0.0/16",
		"198.18.0.0/15",
		"198.51.100.0/24",
		"203.0.113.0/24",
		"240.0.0.0/4",
		"255.255.255.255/32",
	}
	DefaultPrivateNetworksV6 = []string{
		"::1/128",
		"::/128",
		"100::/64",
		"2001::/23",
		"2001:db8::/32",
		"fc00::/7",
		"fe80::/10",
	}
)

// NetworkClassifier knows which addresses are private and have no
// public geolocation.
type NetworkClassifier struct {
	tree *nradix.Tree
}

// IsPublic returns false for private addresses. IPv4-mapped IPv6
// addresses are checked as IPv4.
func (n *NetworkClassifier) IsPublic(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	}

	value, err := n.tree.FindCIDR(ip.String())

	return err == nil && value == nil
}

// NewNetworkClassifier builds a classifier of default networks
// extended with extra CIDRs.
func NewNetworkClassifier(extra []string) (*NetworkClassifier, error) {
	v4 := append([]string{}, DefaultPrivateNetworksV4...)
	v6 := append([]string{}, DefaultPrivateNetworksV6...)

	for _, v := range extra {
		ip, _, err := net.ParseCIDR(v)
		if err != nil {
			return nil, fmt.Errorf("incorrect network %s: %w", v, err)
		}

		if ip.To4() != nil {
			v4 = append(v4, v)
		} else {
			v6 = append(v6, v)
		}
	}

	merged, err := cidrman.MergeCIDRs(v4)
	if err != nil {
		return nil, fmt.Errorf("cannot merge ipv4 networks: %w", err)
	}

	tree := nradix.NewTree(len(merged) + len(v6))

	for _, v := range append(merged, v6...) {
		if err := tree.AddCIDR(v, true); err != nil && err != nradix.ErrNodeBusy {
			return nil, fmt.Errorf("cannot add network %s: %w", v, err)
		}
	}

	return &NetworkClassifier{
		tree: tree,
	}, nil
}

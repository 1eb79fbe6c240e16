package ssrf

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validator gates webhook targets before they are stored.  Each rejection
// class carries a distinct message so callers (and tests) can tell why a
// URL was refused.

var blockedV4Networks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
)

var blockedHostSuffixes = []string{
	".localhost",
	".local",
	".internal",
}

var blockedHostnames = map[string]struct{}{
	"localhost":             {},
	"localhost.localdomain": {},
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	networks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		networks = append(networks, network)
	}
	return networks
}

/*
ValidateWebhookURL accepts a URL iff it uses https and its host is a
public address: not a private, loopback, link-local, broadcast, multicast
or unspecified IP, and not a well-known internal hostname.
*/
func ValidateWebhookURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("webhook URL does not parse: %w", err)
	}

	if !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("webhook URL must use https, got %q", parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("webhook URL has no host")
	}

	if ip := net.ParseIP(host); ip != nil {
		return validateIP(ip)
	}

	return validateHostname(host)
}

func validateIP(ip net.IP) error {
	if v4 := ip.To4(); v4 != nil {
		if v4.Equal(net.IPv4zero) {
			return fmt.Errorf("webhook host 0.0.0.0 is the unspecified address")
		}
		if v4.Equal(net.IPv4bcast) {
			return fmt.Errorf("webhook host %s is the broadcast address", v4)
		}
		if v4.IsMulticast() {
			return fmt.Errorf("webhook host %s is a multicast address", v4)
		}
		for _, network := range blockedV4Networks {
			if network.Contains(v4) {
				return fmt.Errorf("webhook host %s is in blocked range %s", v4, network)
			}
		}
		return nil
	}

	switch {
	case ip.IsLoopback():
		return fmt.Errorf("webhook host %s is the IPv6 loopback address", ip)
	case ip.IsUnspecified():
		return fmt.Errorf("webhook host %s is the IPv6 unspecified address", ip)
	case ip.IsPrivate():
		return fmt.Errorf("webhook host %s is a unique-local IPv6 address", ip)
	case ip.IsLinkLocalUnicast():
		return fmt.Errorf("webhook host %s is a link-local IPv6 address", ip)
	case ip.IsMulticast():
		return fmt.Errorf("webhook host %s is an IPv6 multicast address", ip)
	}

	return nil
}

func validateHostname(host string) error {
	lowered := strings.ToLower(strings.TrimSuffix(host, "."))

	if _, blocked := blockedHostnames[lowered]; blocked {
		return fmt.Errorf("webhook hostname %q is a local hostname", host)
	}

	for _, suffix := range blockedHostSuffixes {
		if strings.HasSuffix(lowered, suffix) {
			return fmt.Errorf("webhook hostname %q is in a blocked domain (%s)", host, suffix)
		}
	}

	return nil
}

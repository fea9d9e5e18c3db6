// Package safeurl rejects page URLs that a shared domselect server must not
// load: non-HTTP schemes and hosts resolving to loopback, link-local or
// private addresses.
package safeurl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// ErrPrivate is returned when a URL targets a private or loopback address.
var ErrPrivate = errors.New("safeurl: URL targets a private or loopback address")

// ErrScheme is returned when a URL uses a scheme other than http or https.
var ErrScheme = errors.New("safeurl: only http and https URLs can be loaded")

var privateRanges = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("fc00::/7"),
}

// Resolver looks up host addresses. net.DefaultResolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Check validates rawURL with net.DefaultResolver.
func Check(ctx context.Context, rawURL string) error {
	return CheckWith(ctx, net.DefaultResolver, rawURL)
}

// CheckWith validates rawURL. Hostnames are resolved and every address must
// be public. A failed lookup passes: the load fails later on its own.
func CheckWith(ctx context.Context, r Resolver, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("safeurl: invalid URL: %w", err)
	}
	if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
		return ErrScheme
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("safeurl: URL has no host")
	}

	if ip, err := netip.ParseAddr(host); err == nil {
		if isPrivate(ip) {
			return ErrPrivate
		}
		return nil
	}
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".localhost") {
		return ErrPrivate
	}

	addrs, err := r.LookupHost(ctx, host)
	if err != nil {
		return nil
	}
	for _, a := range addrs {
		if ip, err := netip.ParseAddr(a); err == nil && isPrivate(ip) {
			return fmt.Errorf("%w: %s resolves to %s", ErrPrivate, host, a)
		}
	}
	return nil
}

func isPrivate(ip netip.Addr) bool {
	ip = ip.Unmap()
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified() || ip.IsPrivate() {
		return true
	}
	for _, p := range privateRanges {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

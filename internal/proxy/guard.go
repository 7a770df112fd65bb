// Package proxy provides the SSRF-hardened outbound image proxy: URL
// validation against loopback and private targets, and verbatim
// streaming of upstream responses.
package proxy

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// blockedHosts are host literals that are never valid proxy targets.
var blockedHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"0.0.0.0":   true,
	"::1":       true,
}

// ValidateURL checks an externally-supplied URL before any outbound
// fetch is attempted. Only https URLs with a public-looking host pass.
// Checks operate on the literal host string; a public hostname that
// resolves to a private address at fetch time is not caught here.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "https" {
		return fmt.Errorf("only https URLs are allowed, got scheme %q", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("URL has no host")
	}

	if blockedHosts[host] {
		return fmt.Errorf("host %q is not allowed", host)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
			addr.IsLinkLocalMulticast() || addr.IsUnspecified() {
			return fmt.Errorf("address %s is not allowed", addr)
		}
	}

	return nil
}

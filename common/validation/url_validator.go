package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URLValidator checks external URLs attached to LINK assets. Links are
// handed to buyers, never fetched here, so only the URL itself is checked
// and no DNS resolution happens.
type URLValidator struct {
	allowedProtocols map[string]bool
	blockedHostnames map[string]bool
	maxLength        int
}

// NewURLValidator creates a validator allowing public http/https URLs
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedProtocols: map[string]bool{
			"http":  true,
			"https": true,
		},
		blockedHostnames: map[string]bool{
			"localhost":                true,
			"localhost.localdomain":    true,
			"metadata.google.internal": true,
		},
		maxLength: 2048,
	}
}

// Validate returns an error describing why urlStr is not an acceptable link
func (v *URLValidator) Validate(urlStr string) error {
	urlStr = strings.TrimSpace(urlStr)
	if urlStr == "" {
		return fmt.Errorf("url is required")
	}
	if len(urlStr) > v.maxLength {
		return fmt.Errorf("url exceeds %d characters", v.maxLength)
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme == "" {
		return fmt.Errorf("protocol scheme is required")
	}
	if !v.allowedProtocols[scheme] {
		return fmt.Errorf("protocol '%s' is not allowed (only http/https permitted)", parsed.Scheme)
	}

	if parsed.User != nil {
		return fmt.Errorf("credentials in URL are not allowed")
	}

	return v.validateHost(parsed.Hostname())
}

func (v *URLValidator) validateHost(hostname string) error {
	host := strings.ToLower(strings.TrimSuffix(hostname, "."))
	if host == "" {
		return fmt.Errorf("hostname is required")
	}

	if v.blockedHostnames[host] || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("hostname '%s' is not allowed", hostname)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return nil
	}

	switch {
	case ip.IsLoopback():
		return fmt.Errorf("IP %s is not allowed (loopback address)", ip)
	case ip.IsPrivate():
		return fmt.Errorf("IP %s is not allowed (private network)", ip)
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return fmt.Errorf("IP %s is not allowed (link-local address)", ip)
	case ip.IsMulticast():
		return fmt.Errorf("IP %s is not allowed (multicast address)", ip)
	case ip.IsUnspecified():
		return fmt.Errorf("IP %s is not allowed (unspecified address)", ip)
	}

	return nil
}

package netutil

import (
	"net"
	"net/netip"
	"strings"
	"unicode/utf8"
)

// MaxFieldLength caps free-text device metadata (name, OS, language, ...)
// before it reaches the database.
const MaxFieldLength = 256

// NormalizeIP takes either a bare IP string or an address that may include a
// port (e.g. "192.0.2.4:1234" or "[2001:db8::1]:443") and returns the
// canonical IP portion without any zone identifiers. The second return value
// indicates if the address was successfully parsed as an IP address.
func NormalizeIP(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if addrPort, err := netip.ParseAddrPort(raw); err == nil {
		addr := addrPort.Addr().WithZone("")
		if addr.IsValid() {
			return addr.String(), true
		}
	}
	if addr, err := netip.ParseAddr(raw); err == nil {
		addr = addr.WithZone("")
		if addr.IsValid() {
			return addr.String(), true
		}
	}
	// Bracketed IPv6 with a non-numeric port (e.g. "[::1]:port").
	if strings.HasPrefix(raw, "[") && strings.Contains(raw, "]") {
		host := raw[1:strings.LastIndex(raw, "]")]
		if addr, err := netip.ParseAddr(host); err == nil {
			addr = addr.WithZone("")
			if addr.IsValid() {
				return addr.String(), true
			}
		}
	}
	// Last resort: drop the trailing colon section and parse again.
	if idx := strings.LastIndex(raw, ":"); idx > 0 {
		if addr, err := netip.ParseAddr(raw[:idx]); err == nil {
			addr = addr.WithZone("")
			if addr.IsValid() {
				return addr.String(), true
			}
		}
	}
	return raw, false
}

// NormalizeMAC canonicalizes a client-reported hardware address to the
// colon-separated lowercase form. Unparseable input comes back unchanged with
// ok=false; device metadata is client-supplied and best-effort by nature.
func NormalizeMAC(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	hw, err := net.ParseMAC(raw)
	if err != nil {
		return raw, false
	}
	return hw.String(), true
}

// TruncateField trims overly long free-text metadata to MaxFieldLength runes.
func TruncateField(s string) string {
	if s == "" {
		return ""
	}
	if utf8.RuneCountInString(s) <= MaxFieldLength {
		return s
	}
	var builder strings.Builder
	builder.Grow(len(s))
	count := 0
	for _, r := range s {
		builder.WriteRune(r)
		count++
		if count >= MaxFieldLength {
			break
		}
	}
	return builder.String()
}

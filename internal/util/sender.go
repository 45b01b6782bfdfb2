// Package util holds small formatting helpers shared by the CLI and the TUI.
package util

import (
	"net/mail"
	"strings"
)

// SenderAddress extracts the lowercased address from a From header such as
// "Acme Talent <Jobs@Acme.com>". Headers that do not parse are tried as a
// comma-separated list; if nothing parses the trimmed header is returned.
func SenderAddress(fromHeader string) string {
	addr := parseFrom(fromHeader)
	if addr == nil {
		return strings.TrimSpace(fromHeader)
	}
	return strings.ToLower(strings.TrimSpace(addr.Address))
}

// SenderName is the human part of a From header, falling back to a
// title-cased local part ("jane.doe@x.com" -> "Jane Doe").
func SenderName(fromHeader string) string {
	addr := parseFrom(fromHeader)
	if addr == nil {
		return strings.TrimSpace(fromHeader)
	}
	if name := strings.Trim(strings.TrimSpace(addr.Name), `"'`); name != "" {
		return name
	}
	email := strings.ToLower(addr.Address)
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return email
	}
	local := email[:at]
	if plus := strings.IndexByte(local, '+'); plus > 0 {
		local = local[:plus]
	}
	parts := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func parseFrom(fromHeader string) *mail.Address {
	fromHeader = strings.TrimSpace(fromHeader)
	if fromHeader == "" {
		return nil
	}
	if addr, err := mail.ParseAddress(fromHeader); err == nil {
		return addr
	}
	for _, p := range strings.Split(fromHeader, ",") {
		if addr, err := mail.ParseAddress(strings.TrimSpace(p)); err == nil {
			return addr
		}
	}
	return nil
}

// Truncate shortens s to at most n runes, marking the cut with "…".
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

package leads

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// ErrInvalidEmail is returned for addresses a browser email input would reject.
var ErrInvalidEmail = errors.New("leads: invalid email")

// browserEmail is the pattern browsers apply to input[type=email]. It admits
// dot placements that RFC 5322 dot-atoms do not.
var browserEmail = regexp.MustCompile("^[A-Za-z0-9.!#$%&'*+/=?^_`{|}~-]+@[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?(?:\\.[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?)*$")

// NormalizeEmail validates a bare address and returns it with an ASCII, lowercased domain.
// Display names and angle brackets are rejected.
func NormalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidEmail
	}
	if err := parseAddress(raw); err != nil && !browserEmail.MatchString(raw) {
		return "", err
	}

	at := strings.LastIndex(raw, "@")
	if at < 0 {
		return "", ErrInvalidEmail
	}
	local, domain := raw[:at], raw[at+1:]
	if local == "" || domain == "" {
		return "", ErrInvalidEmail
	}
	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return "", fmt.Errorf("%w: domain: %v", ErrInvalidEmail, err)
	}
	return local + "@" + strings.ToLower(ascii), nil
}

func parseAddress(raw string) error {
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	if addr.Name != "" || addr.Address != raw {
		return ErrInvalidEmail
	}
	return nil
}

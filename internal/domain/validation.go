package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Address length bounds
const (
	MinAddressLength = 3
	MaxAddressLength = 90
)

// addressRegex accepts bech32-style addresses: a lowercase alphanumeric
// prefix, and lowercase alphanumeric payload. Untrusted strings must pass
// here before they are used as a bidder, owner or beneficiary identity.
var addressRegex = regexp.MustCompile(`^[a-z][a-z0-9]*1?[a-z0-9]+$`)

// ValidateAddress converts an untrusted string into a usable identity,
// or fails with ErrInvalidAddress.
func ValidateAddress(addr string) error {
	if len(addr) < MinAddressLength {
		return fmt.Errorf("%w: %q is too short", ErrInvalidAddress, addr)
	}

	if len(addr) > MaxAddressLength {
		return fmt.Errorf("%w: %q is too long", ErrInvalidAddress, addr)
	}

	if addr != strings.ToLower(addr) {
		return fmt.Errorf("%w: %q is not lowercase", ErrInvalidAddress, addr)
	}

	if !addressRegex.MatchString(addr) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}

	return nil
}

// ValidateDenom checks a denomination label: 2-32 lowercase letters.
func ValidateDenom(denom string) error {
	if len(denom) < 2 || len(denom) > 32 {
		return fmt.Errorf("%w: %q", ErrInvalidDenom, denom)
	}

	for _, r := range denom {
		if r < 'a' || r > 'z' {
			return fmt.Errorf("%w: %q", ErrInvalidDenom, denom)
		}
	}

	return nil
}

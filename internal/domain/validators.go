package domain

import (
	"fmt"
	"regexp"
)

var (
	// User-friendly TON address (base64url, 48 chars) or raw workchain:hex form.
	tonAddressRegex = regexp.MustCompile(`^([A-Za-z0-9_-]{48}|-?\d+:[0-9a-fA-F]{64})$`)
	txHashRegex     = regexp.MustCompile(`^[0-9a-fA-F]{64}$|^[A-Za-z0-9+/=_-]{44}$`)
)

// ValidateAddress checks that a TON wallet address is structurally valid.
func ValidateAddress(addr string) error {
	if addr == "" {
		return ErrValidation("recipient address is required")
	}
	if !tonAddressRegex.MatchString(addr) {
		return ErrValidation(fmt.Sprintf("invalid TON address: %s", addr))
	}
	return nil
}

// ValidateTxHash checks that a transaction hash looks like a TON tx hash
// (hex or base64 encoded 32 bytes).
func ValidateTxHash(hash string) error {
	if hash == "" {
		return ErrValidation("transaction hash is required")
	}
	if !txHashRegex.MatchString(hash) {
		return ErrValidation("invalid transaction hash format")
	}
	return nil
}

// ValidatePositiveAmount checks that an amount is positive (minor units).
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return ErrValidation(fmt.Sprintf("amount must be positive, got %d", amount))
	}
	return nil
}

// ValidateCurrency checks the currency is one the platform pays out.
func ValidateCurrency(c Currency) error {
	if c != CurrencyTON && c != CurrencyUSDT {
		return ErrValidation(fmt.Sprintf("unsupported currency: %s", c))
	}
	return nil
}

// ValidateNumbers checks one ticket's pick set: exact length, distinct,
// every pick in [1, max]. Order does not matter here; picks are sorted
// before storage.
func ValidateNumbers(numbers []int32, count, max int) error {
	if len(numbers) != count {
		return ErrValidation(fmt.Sprintf("ticket must have exactly %d numbers, got %d", count, len(numbers)))
	}
	seen := make(map[int32]bool, count)
	for _, n := range numbers {
		if n < 1 || n > int32(max) {
			return ErrValidation(fmt.Sprintf("number %d out of range [1, %d]", n, max))
		}
		if seen[n] {
			return ErrValidation(fmt.Sprintf("duplicate number %d", n))
		}
		seen[n] = true
	}
	return nil
}

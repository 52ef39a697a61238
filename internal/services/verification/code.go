// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const (
	// MinCodeLength is the shortest code accepted for redemption.
	MinCodeLength = 4
	// MaxCodeLength is the longest code accepted for redemption.
	MaxCodeLength = 8
)

var codePattern = regexp.MustCompile(`^\d{4,8}$`)

// ValidCode reports whether code is 4 to 8 ASCII digits.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// GenerateCode returns a uniformly random numeric code with the given number of digits.
// Leading zeros are kept.
func GenerateCode(length int) (string, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return "", fmt.Errorf("code length %d out of range", length)
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}

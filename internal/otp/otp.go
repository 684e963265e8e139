// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package otp generates and compares six-digit one-time codes.
package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// Length is the number of digits in a code.
const Length = 6

var span = big.NewInt(900000)

// Generate returns a random code between 100000 and 999999.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generating otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// Valid reports whether s has the shape of a code.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Equal compares two codes in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

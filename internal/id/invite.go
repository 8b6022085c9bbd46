// Package id generates invite codes for couple pairing.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet excludes 0/O and 1/I so codes survive being read aloud.
const inviteAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const inviteLength = 6

// NewInviteCode returns a short upper-case code suitable for sharing with a
// partner out of band. Uniqueness is enforced by the couples table, not here;
// callers retry on a duplicate-key error.
func NewInviteCode() (string, error) {
	code, err := gonanoid.Generate(inviteAlphabet, inviteLength)
	if err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	return code, nil
}

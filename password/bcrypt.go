package password

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	minCost      = 10
	minMinLength = 8
)

// ErrPolicy is returned by [Verifier.ValidateStrength] when a candidate
// password does not meet the configured policy.
var ErrPolicy = errors.New("password policy violation")

// dummyHash is a valid bcrypt hash of an unguessable throwaway value. It is
// compared against when no real stored hash exists so that the "no such user"
// and "wrong password" paths cost the same.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// Config tunes the verifier. Zero values select bcrypt cost 12 and an
// 8-character minimum.
type Config struct {
	Cost      int
	MinLength int
}

// Verifier hashes and compares passwords. It is stateless and safe for
// concurrent use.
type Verifier struct {
	config Config
}

// NewVerifier validates the configuration and returns a [Verifier].
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Cost == 0 {
		cfg.Cost = 12
	}
	if cfg.MinLength == 0 {
		cfg.MinLength = minMinLength
	}
	if cfg.Cost < minCost || cfg.Cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	if cfg.MinLength < minMinLength {
		return nil, errors.New("password minimum length must be >= 8")
	}
	return &Verifier{config: cfg}, nil
}

// Hash returns the bcrypt hash of a password at the configured cost.
func (v *Verifier) Hash(password string) (string, error) {
	if err := v.ValidateStrength(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.config.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether the password matches the stored hash. Hash-format
// errors are treated as verification failure, never surfaced: the caller
// cannot distinguish "wrong password" from "corrupt stored hash".
func (v *Verifier) Verify(password, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
}

// CompareDummy performs a full-cost comparison against a fixed hash. Called
// on the unknown-account login path so its duration matches [Verifier.Verify].
func (v *Verifier) CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}

// ValidateStrength enforces the registration policy: minimum length plus at
// least one upper-case letter, one lower-case letter, and one digit.
func (v *Verifier) ValidateStrength(password string) error {
	if len(password) < v.config.MinLength {
		return ErrPolicy
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrPolicy
	}
	return nil
}

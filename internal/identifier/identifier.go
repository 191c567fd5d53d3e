// Package identifier derives, validates and allocates book identifiers.
//
// An identifier is the book's directory name in the store and its URL
// segment, so it must be a single safe path segment.
package identifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	// DefaultMaxAttempts bounds allocation: the desired slug plus -1 through -9.
	DefaultMaxAttempts = 10

	// MaxLength caps derived slugs so suffixes still fit filesystem limits.
	MaxLength = 80
)

var (
	// ErrTaken is returned by create callbacks when the identifier is in use.
	ErrTaken = errors.New("identifier already taken")

	// ErrExhausted is returned when every candidate slug was taken.
	ErrExhausted = errors.New("identifier candidates exhausted")

	// ErrInvalid is returned for identifiers that are not a safe path segment.
	ErrInvalid = errors.New("invalid identifier")
)

// ExhaustedError carries the slug the allocator started from.
type ExhaustedError struct {
	Desired  string
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %q after %d attempts", ErrExhausted, e.Desired, e.Attempts)
}

func (e *ExhaustedError) Unwrap() error {
	return ErrExhausted
}

// Slugify lowercases s and collapses every run of characters outside
// [a-z0-9] into a single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := b.String()
	if len(slug) > MaxLength {
		slug = strings.TrimRight(slug[:MaxLength], "-")
	}
	return slug
}

// Validate reports whether id is usable as a single path segment.
func Validate(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalid)
	case len(id) > 128:
		return fmt.Errorf("%w: longer than 128 bytes", ErrInvalid)
	case strings.ContainsAny(id, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalid, id)
	case strings.Contains(id, ".."):
		return fmt.Errorf("%w: %q contains a traversal sequence", ErrInvalid, id)
	case strings.HasPrefix(id, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalid, id)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains a control character", ErrInvalid, id)
		}
	}
	return nil
}

// Valid is Validate as a predicate.
func Valid(id string) bool {
	return Validate(id) == nil
}

// Allocator claims a free identifier by retrying the create operation itself.
// Creation is the only source of truth for "taken", so two concurrent
// allocations for the same slug cannot both succeed.
type Allocator struct {
	MaxAttempts int
}

// Allocate calls create with desired, then desired-1, desired-2, ... until
// create succeeds. Only errors matching ErrTaken move on to the next
// candidate; any other error is returned as is.
func (a Allocator) Allocate(ctx context.Context, desired string, create func(id string) error) (string, error) {
	if err := Validate(desired); err != nil {
		return "", err
	}

	attempts := a.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := Candidate(desired, i)
		err := create(candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, ErrTaken) {
			return "", err
		}
	}

	return "", &ExhaustedError{Desired: desired, Attempts: attempts}
}

// Candidate returns the n-th candidate for desired: desired itself for 0,
// desired-n otherwise.
func Candidate(desired string, n int) string {
	if n == 0 {
		return desired
	}
	return fmt.Sprintf("%s-%d", desired, n)
}

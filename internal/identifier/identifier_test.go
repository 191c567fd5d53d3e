package identifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Cave of Wonders", "the-cave-of-wonders"},
		{"  A girl & her Dog!  ", "a-girl-her-dog"},
		{"../../etc/passwd", "etc-passwd"},
		{"Ünïcode Tale", "n-code-tale"},
		{"---", ""},
		{"Chapter 2: Return", "chapter-2-return"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	t.Run("caps length", func(t *testing.T) {
		got := Slugify(strings.Repeat("ab ", 100))
		if len(got) > MaxLength {
			t.Errorf("len = %d, want <= %d", len(got), MaxLength)
		}
		if strings.HasSuffix(got, "-") {
			t.Errorf("slug %q should not end with a hyphen", got)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := []string{"the-cave", "book_1", "a", "cave.v2"}
	for _, id := range valid {
		if err := Validate(id); err != nil {
			t.Errorf("Validate(%q) error = %v", id, err)
		}
	}

	invalid := []string{"", "a/b", `a\b`, "..", "a..b", ".hidden", "tab\there", strings.Repeat("x", 129)}
	for _, id := range invalid {
		err := Validate(id)
		if err == nil {
			t.Errorf("Validate(%q) expected error", id)
			continue
		}
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("Validate(%q) error = %v, want ErrInvalid", id, err)
		}
	}
}

// fakeNamespace simulates atomic directory creation.
type fakeNamespace struct {
	taken map[string]bool
	calls []string
}

func newFakeNamespace(taken ...string) *fakeNamespace {
	ns := &fakeNamespace{taken: make(map[string]bool)}
	for _, id := range taken {
		ns.taken[id] = true
	}
	return ns
}

func (ns *fakeNamespace) create(id string) error {
	ns.calls = append(ns.calls, id)
	if ns.taken[id] {
		return fmt.Errorf("mkdir %s: %w", id, ErrTaken)
	}
	ns.taken[id] = true
	return nil
}

func TestAllocator_Allocate(t *testing.T) {
	ctx := context.Background()

	t.Run("free slug is used as is", func(t *testing.T) {
		ns := newFakeNamespace()
		got, err := Allocator{}.Allocate(ctx, "cave", ns.create)
		if err != nil {
			t.Fatalf("Allocate() error = %v", err)
		}
		if got != "cave" {
			t.Errorf("Allocate() = %q, want cave", got)
		}
	})

	for n := 1; n <= 9; n++ {
		t.Run(fmt.Sprintf("%d collisions", n), func(t *testing.T) {
			taken := []string{"cave"}
			for i := 1; i < n; i++ {
				taken = append(taken, fmt.Sprintf("cave-%d", i))
			}
			ns := newFakeNamespace(taken...)

			got, err := Allocator{}.Allocate(ctx, "cave", ns.create)
			if err != nil {
				t.Fatalf("Allocate() error = %v", err)
			}
			if want := fmt.Sprintf("cave-%d", n); got != want {
				t.Errorf("Allocate() = %q, want %q", got, want)
			}
		})
	}

	t.Run("ten collisions exhaust", func(t *testing.T) {
		taken := []string{"cave"}
		for i := 1; i <= 9; i++ {
			taken = append(taken, fmt.Sprintf("cave-%d", i))
		}
		ns := newFakeNamespace(taken...)

		_, err := Allocator{}.Allocate(ctx, "cave", ns.create)
		if !errors.Is(err, ErrExhausted) {
			t.Fatalf("Allocate() error = %v, want ErrExhausted", err)
		}
		var exhausted *ExhaustedError
		if !errors.As(err, &exhausted) || exhausted.Desired != "cave" {
			t.Errorf("error should carry desired slug, got %v", err)
		}
		if len(ns.calls) != DefaultMaxAttempts {
			t.Errorf("create called %d times, want %d", len(ns.calls), DefaultMaxAttempts)
		}
	})

	t.Run("other errors stop allocation", func(t *testing.T) {
		boom := errors.New("disk full")
		calls := 0
		_, err := Allocator{}.Allocate(ctx, "cave", func(string) error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Allocate() error = %v, want disk full", err)
		}
		if calls != 1 {
			t.Errorf("create called %d times, want 1", calls)
		}
	})

	t.Run("invalid desired slug", func(t *testing.T) {
		_, err := Allocator{}.Allocate(ctx, "../x", newFakeNamespace().create)
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("Allocate() error = %v, want ErrInvalid", err)
		}
	})

	t.Run("custom bound", func(t *testing.T) {
		ns := newFakeNamespace("cave", "cave-1")
		_, err := Allocator{MaxAttempts: 2}.Allocate(ctx, "cave", ns.create)
		if !errors.Is(err, ErrExhausted) {
			t.Fatalf("Allocate() error = %v, want ErrExhausted", err)
		}
	})
}

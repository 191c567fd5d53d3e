package illustration

import (
	"strings"
	"testing"

	"github.com/nerdenough/ai-storytime/internal/book"
)

func aliceBook() *book.Book {
	return &book.Book{
		Characters: []book.Character{
			{Name: "Alice", Image: &book.Image{Caption: "Alice", Prompt: "blonde hair"}},
			{Name: "Bob", Description: "a tall boy"},
		},
		Setting: &book.Setting{Prompt: "a misty forest"},
	}
}

func TestComposer_PagePrompt(t *testing.T) {
	c := NewComposer("storybook art")
	b := aliceBook()

	got := c.PagePrompt(&book.Image{Prompt: "Alice, holding a mushroom"}, b)
	want := "storybook art, (Alice, holding a mushroom), blonde hair, [a misty forest]"
	if got != want {
		t.Errorf("PagePrompt() = %q, want %q", got, want)
	}

	// Parts appear in order.
	order := []string{"storybook art", "(Alice, holding a mushroom)", "blonde hair", "[a misty forest]"}
	last := -1
	for _, part := range order {
		idx := strings.Index(got, part)
		if idx <= last {
			t.Fatalf("part %q out of order in %q", part, got)
		}
		last = idx
	}

	t.Run("substring is not a reference", func(t *testing.T) {
		got := c.PagePrompt(&book.Image{Prompt: "Alice's garden, Bobcat"}, b)
		if strings.Contains(got, "blonde hair") || strings.Contains(got, "a tall boy") {
			t.Errorf("PagePrompt() = %q should not pick up characters", got)
		}
	})

	t.Run("explicit character list", func(t *testing.T) {
		got := c.PagePrompt(&book.Image{Prompt: "two friends", Characters: []string{"Bob"}}, b)
		if !strings.Contains(got, "a tall boy") {
			t.Errorf("PagePrompt() = %q, want Bob's description", got)
		}
	})

	t.Run("no setting", func(t *testing.T) {
		got := c.PagePrompt(&book.Image{Prompt: "a hill"}, &book.Book{})
		if got != "storybook art, (a hill)" {
			t.Errorf("PagePrompt() = %q", got)
		}
	})

	t.Run("default prefix", func(t *testing.T) {
		got := NewComposer("").PagePrompt(&book.Image{Prompt: "a hill"}, &book.Book{})
		if !strings.HasPrefix(got, DefaultStylePrefix) {
			t.Errorf("PagePrompt() = %q, want default prefix", got)
		}
	})
}

func TestComposer_PortraitPrompt(t *testing.T) {
	c := NewComposer("storybook art")
	b := aliceBook()

	got := c.PortraitPrompt(&b.Characters[0], b)
	want := "a close-up portrait, headshot, looking into the camera, artwork, blonde hair, a misty forest, very detailed, realistic, high quality, masterpiece"
	if got != want {
		t.Errorf("PortraitPrompt() = %q, want %q", got, want)
	}
	if strings.Contains(got, "storybook art") {
		t.Error("portrait prompts do not carry the page style prefix")
	}
}

func TestReferencesCharacter(t *testing.T) {
	img := &book.Image{Prompt: " Dog ,running"}
	if !ReferencesCharacter(img, "Dog") {
		t.Error("expected Dog to be referenced")
	}
	if ReferencesCharacter(img, "dog") {
		t.Error("matching is case sensitive")
	}
	if ReferencesCharacter(nil, "Dog") {
		t.Error("nil image references nobody")
	}
}

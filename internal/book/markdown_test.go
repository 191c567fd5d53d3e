package book

import "testing"

func TestPagesFromMarkdown(t *testing.T) {
	md := "# The Cave\n\nA girl walked.\n\n![a girl at a cave mouth][0]\n\nHer dog barked.\n![a dog barking][1]\n\nThey went home."

	title, pages := PagesFromMarkdown(md)
	if title != "The Cave" {
		t.Errorf("title = %q, want The Cave", title)
	}
	if len(pages) != 3 {
		t.Fatalf("len(pages) = %d, want 3", len(pages))
	}

	if pages[0].Text != "A girl walked." || pages[0].Image == nil || pages[0].Image.Caption != "a girl at a cave mouth" {
		t.Errorf("pages[0] = %+v", pages[0])
	}
	if pages[0].Image.Prompt != pages[0].Image.Caption {
		t.Error("markdown captions double as image prompts")
	}
	if pages[1].Text != "Her dog barked." || pages[1].Image.Caption != "a dog barking" {
		t.Errorf("pages[1] = %+v", pages[1])
	}
	if pages[2].Text != "They went home." || pages[2].Image != nil {
		t.Errorf("pages[2] = %+v", pages[2])
	}
}

func TestPagesFromMarkdown_NoCaptions(t *testing.T) {
	title, pages := PagesFromMarkdown("Just one paragraph.")
	if title != "" {
		t.Errorf("title = %q, want empty", title)
	}
	if len(pages) != 1 || pages[0].Image != nil {
		t.Errorf("pages = %+v", pages)
	}
}

func TestBook_Character(t *testing.T) {
	b := sampleBook("cave")
	if c, ok := b.Character("Dog"); !ok || c.Description != "a scruffy terrier" {
		t.Errorf("Character(Dog) = %+v, %v", c, ok)
	}
	if _, ok := b.Character("Cat"); ok {
		t.Error("Character(Cat) should not be found")
	}
}

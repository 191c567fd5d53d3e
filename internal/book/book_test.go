package book

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	b := &Book{
		Title: "Park",
		Characters: []Character{
			{Name: "Dog", Description: "brown", Image: &Image{Caption: "dog", Prompt: "dog", Characters: []string{"Dog", "Cat"}}},
			{Name: " Cat ", Description: "grey"},
			{Name: "Dog", Description: "white"},
		},
		Pages: []Page{
			{Text: "one", Image: &Image{Caption: "c", Prompt: "p", Characters: []string{"Dog", "Ghost", "Dog"}}},
			{Text: "two", Image: &Image{Caption: "c", Prompt: "p", Characters: []string{"Ghost"}}},
			{Text: "three"},
		},
	}

	notes := b.Normalize()

	if len(b.Characters) != 2 || b.Characters[0].Description != "brown" || b.Characters[1].Name != "Cat" {
		t.Errorf("characters = %+v", b.Characters)
	}
	if got := b.Pages[0].Image.Characters; !reflect.DeepEqual(got, []string{"Dog"}) {
		t.Errorf("page 0 characters = %v, want [Dog]", got)
	}
	if got := b.Pages[1].Image.Characters; got != nil {
		t.Errorf("page 1 characters = %v, want nil", got)
	}
	if got := b.Characters[0].Image.Characters; !reflect.DeepEqual(got, []string{"Dog", "Cat"}) {
		t.Errorf("portrait characters = %v", got)
	}
	// One duplicate, two unknown names.
	if len(notes) != 3 {
		t.Errorf("notes = %q, want 3", notes)
	}

	if ch, ok := b.Character("Cat"); !ok || ch.Description != "grey" {
		t.Errorf("Character(Cat) = %+v, %v", ch, ok)
	}
}

func TestNormalizeCleanBook(t *testing.T) {
	b := &Book{
		Title:      "Cave",
		Characters: []Character{{Name: "Maya"}},
		Pages:      []Page{{Text: "x", Image: &Image{Caption: "c", Prompt: "p", Characters: []string{"Maya"}}}},
	}
	want := b.Clone()
	if notes := b.Normalize(); len(notes) != 0 {
		t.Errorf("notes = %q, want none", notes)
	}
	if !reflect.DeepEqual(b, want) {
		t.Errorf("Normalize() changed a clean book:\n got %+v\nwant %+v", b, want)
	}
}

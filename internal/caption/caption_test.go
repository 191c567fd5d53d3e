package caption

import (
	"reflect"
	"testing"
)

func TestIsCaption(t *testing.T) {
	tests := []struct {
		line    string
		want    string
		wantCap bool
	}{
		{"_a cat_", "a cat", true},
		{"  _a cat_  ", "a cat", true},
		{"_x_", "x", true},
		{"__", "", false},
		{"_", "", false},
		{"_a cat", "", false},
		{"a cat_", "", false},
		{"plain text", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := IsCaption(tt.line)
		if ok != tt.wantCap || got != tt.want {
			t.Errorf("IsCaption(%q) = (%q, %v), want (%q, %v)", tt.line, got, ok, tt.want, tt.wantCap)
		}
	}
}

func TestExtract(t *testing.T) {
	t.Run("single caption", func(t *testing.T) {
		res := Extract("_a cat_")
		if !reflect.DeepEqual(res.Captions, []string{"a cat"}) {
			t.Fatalf("Captions = %v, want [a cat]", res.Captions)
		}
		if res.Text != "![a cat][0]" {
			t.Errorf("Text = %q, want ![a cat][0]", res.Text)
		}
	})

	t.Run("short caption", func(t *testing.T) {
		res := Extract("_x_")
		if !reflect.DeepEqual(res.Captions, []string{"x"}) {
			t.Fatalf("Captions = %v, want [x]", res.Captions)
		}
	})

	t.Run("lone underscore is text", func(t *testing.T) {
		res := Extract("_")
		if len(res.Captions) != 0 {
			t.Fatalf("Captions = %v, want none", res.Captions)
		}
		if res.Text != "_" {
			t.Errorf("Text = %q, want _", res.Text)
		}
	})

	t.Run("story with several captions", func(t *testing.T) {
		in := "# The Cave\n\nA girl walked.\n\n_a girl at a cave mouth_\n\nHer dog barked.\n_a dog barking_\n"
		res := Extract(in)

		want := "# The Cave\n\nA girl walked.\n\n![a girl at a cave mouth][0]\n\nHer dog barked.\n![a dog barking][1]\n"
		if res.Text != want {
			t.Errorf("Text = %q, want %q", res.Text, want)
		}
		if !reflect.DeepEqual(res.Captions, []string{"a girl at a cave mouth", "a dog barking"}) {
			t.Errorf("Captions = %v", res.Captions)
		}

		var captions, texts int
		for _, s := range res.Segments {
			switch s.Kind {
			case KindCaption:
				captions++
			case KindText:
				texts++
				if s.Index != -1 {
					t.Errorf("text segment index = %d, want -1", s.Index)
				}
			}
		}
		if captions != 2 || texts != 7 {
			t.Errorf("segments = %d captions, %d texts; want 2, 7", captions, texts)
		}
	})

	t.Run("italic inside paragraph is not a caption", func(t *testing.T) {
		res := Extract("She said _hello_ softly.")
		if len(res.Captions) != 0 {
			t.Errorf("Captions = %v, want none", res.Captions)
		}
	})
}

func TestParseMarker(t *testing.T) {
	caption, n, ok := ParseMarker(Marker("a dog barking", 3))
	if !ok || caption != "a dog barking" || n != 3 {
		t.Errorf("ParseMarker() = (%q, %d, %v)", caption, n, ok)
	}
	if _, _, ok := ParseMarker("![img](url)"); ok {
		t.Error("inline image should not parse as a marker")
	}
}

// Package caption pulls illustration captions out of generated markdown.
//
// A caption is a line wrapped in underscores, such as "_a cat on a mat_".
// Each caption line is replaced in place by a markdown reference image
// marker "![caption][n]" where n counts captions from 0.
package caption

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind distinguishes narrative text from captions.
type Kind string

const (
	KindText    Kind = "text"
	KindCaption Kind = "caption"
)

// Segment is one line-level piece of the extracted story.
type Segment struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
	// Index is the marker index for captions, -1 for text.
	Index int `json:"index"`
}

// Result is the output of Extract.
type Result struct {
	// Text is the input with every caption line replaced by its marker.
	Text string
	// Captions maps marker index to caption text.
	Captions []string
	// Segments lists the input lines in order.
	Segments []Segment
}

// IsCaption reports whether line is a caption line and returns the caption
// with its delimiters stripped.
func IsCaption(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) <= 2 {
		return "", false
	}
	if !strings.HasPrefix(trimmed, "_") || !strings.HasSuffix(trimmed, "_") {
		return "", false
	}
	return trimmed[1 : len(trimmed)-1], true
}

// Marker returns the reference marker that replaces caption index n.
func Marker(caption string, n int) string {
	return fmt.Sprintf("![%s][%d]", caption, n)
}

// Extract splits text into narrative and captions.
func Extract(text string) Result {
	lines := strings.Split(text, "\n")
	out := make([]string, len(lines))
	res := Result{Segments: make([]Segment, 0, len(lines))}

	for i, line := range lines {
		c, ok := IsCaption(line)
		if !ok {
			out[i] = line
			res.Segments = append(res.Segments, Segment{Kind: KindText, Text: line, Index: -1})
			continue
		}
		n := len(res.Captions)
		res.Captions = append(res.Captions, c)
		out[i] = Marker(c, n)
		res.Segments = append(res.Segments, Segment{Kind: KindCaption, Text: c, Index: n})
	}

	res.Text = strings.Join(out, "\n")
	return res
}

var markerPattern = regexp.MustCompile(`^!\[(.*)\]\[(\d+)\]$`)

// ParseMarker is the inverse of Marker for a single trimmed line.
func ParseMarker(line string) (string, int, bool) {
	m := markerPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], n, true
}

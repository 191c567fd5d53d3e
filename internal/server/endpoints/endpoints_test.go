package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/nerdenough/ai-storytime/internal/api"
	"github.com/nerdenough/ai-storytime/internal/pipeline"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&pipeline.Error{Kind: pipeline.ErrInvalidInput}, http.StatusBadRequest},
		{&pipeline.Error{Kind: pipeline.ErrNotFound, Identifier: "x"}, http.StatusNotFound},
		{&pipeline.Error{Kind: pipeline.ErrAlreadyExists}, http.StatusConflict},
		{&pipeline.Error{Kind: pipeline.ErrGenerationEmpty}, http.StatusBadGateway},
		{&pipeline.Error{Kind: pipeline.ErrMalformedModelOutput}, http.StatusBadGateway},
		{&pipeline.Error{Kind: pipeline.ErrIdentifierExhausted}, http.StatusInternalServerError},
		{&pipeline.Error{Kind: pipeline.ErrStorageWriteFailed}, http.StatusInternalServerError},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(pipeline.KindName(tt.err), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestParseCallFilter(t *testing.T) {
	q := url.Values{}
	q.Set("book_id", "the-cave")
	q.Set("success", "false")
	q.Set("limit", "5")
	q.Set("after", "2026-01-15T00:00:00Z")

	f, err := parseCallFilter(q)
	if err != nil {
		t.Fatalf("parseCallFilter() error = %v", err)
	}
	if f.BookID != "the-cave" || f.Limit != 5 || f.Offset != 0 {
		t.Errorf("filter = %+v", f)
	}
	if f.Success == nil || *f.Success {
		t.Error("Success filter not parsed")
	}
	if f.After == nil || f.After.Year() != 2026 || f.Before != nil {
		t.Errorf("time filters = %v, %v", f.After, f.Before)
	}

	f, err = parseCallFilter(url.Values{})
	if err != nil {
		t.Fatalf("parseCallFilter() error = %v", err)
	}
	if f.Limit != defaultCallLimit {
		t.Errorf("default Limit = %d, want %d", f.Limit, defaultCallLimit)
	}
}

func TestAllEndpointsHaveUniqueRoutes(t *testing.T) {
	seen := make(map[string]bool)
	for _, ep := range All(Config{}) {
		method, path, handler := ep.Route()
		if handler == nil {
			t.Errorf("%s %s has no handler", method, path)
		}
		key := fmt.Sprintf("%s %s", method, path)
		if seen[key] {
			t.Errorf("duplicate route %s", key)
		}
		seen[key] = true
	}
}

func TestCommandsAreGrouped(t *testing.T) {
	reg := api.NewRegistry()
	for _, ep := range All(Config{}) {
		reg.Register(ep)
	}
	root := reg.BuildCommands(func() string { return "http://localhost:8080" })

	for _, path := range []string{"health", "books create", "books get", "books list", "llmcalls list", "llmcalls get", "prompts list", "swagger"} {
		cmd, _, err := root.Find(strings.Fields(path))
		if err != nil || cmd == root {
			t.Errorf("command %q not found", path)
		}
	}
}

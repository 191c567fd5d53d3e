package llmcall

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store keeps one JSON file per call in a directory.
type Store struct {
	dir string
}

// NewStore creates the directory if needed and returns a store over it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create llm call directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

// QueryFilter specifies filters for listing LLM calls.
type QueryFilter struct {
	BookID    string
	PromptKey string
	Provider  string
	Model     string
	After     *time.Time
	Before    *time.Time
	Success   *bool
	Limit     int
	Offset    int
}

func (f QueryFilter) matches(c *Call) bool {
	switch {
	case f.BookID != "" && c.BookID != f.BookID:
		return false
	case f.PromptKey != "" && c.PromptKey != f.PromptKey:
		return false
	case f.Provider != "" && c.Provider != f.Provider:
		return false
	case f.Model != "" && c.Model != f.Model:
		return false
	case f.Success != nil && c.Success != *f.Success:
		return false
	case f.After != nil && !c.Timestamp.After(*f.After):
		return false
	case f.Before != nil && !c.Timestamp.Before(*f.Before):
		return false
	}
	return true
}

// Save writes the call, replacing any earlier record with the same ID.
func (s *Store) Save(call *Call) error {
	if call == nil {
		return fmt.Errorf("nil call")
	}
	if _, err := uuid.Parse(call.ID); err != nil {
		return fmt.Errorf("invalid call id %q: %w", call.ID, err)
	}

	data, err := json.MarshalIndent(call, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal call: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".call-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write call: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write call: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(call.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store call: %w", err)
	}
	return nil
}

// Get retrieves a single LLM call by ID. Returns nil, nil if it does not exist.
func (s *Store) Get(id string) (*Call, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	call, err := s.load(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return call, err
}

// List retrieves LLM calls matching the filter, newest first.
func (s *Store) List(filter QueryFilter) ([]Call, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read llm call directory: %w", err)
	}

	calls := make([]Call, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		call, err := s.load(filepath.Join(s.dir, e.Name()))
		if err != nil {
			// Partially written or foreign files are not fatal for listing.
			continue
		}
		if filter.matches(call) {
			calls = append(calls, *call)
		}
	}

	sort.Slice(calls, func(i, j int) bool {
		if calls[i].Timestamp.Equal(calls[j].Timestamp) {
			return calls[i].ID < calls[j].ID
		}
		return calls[i].Timestamp.After(calls[j].Timestamp)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(calls) {
			return []Call{}, nil
		}
		calls = calls[filter.Offset:]
	}
	if filter.Limit > 0 && len(calls) > filter.Limit {
		calls = calls[:filter.Limit]
	}
	return calls, nil
}

// CountByPromptKey returns call counts grouped by prompt key.
func (s *Store) CountByPromptKey(bookID string) (map[string]int, error) {
	calls, err := s.List(QueryFilter{BookID: bookID})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, c := range calls {
		counts[c.PromptKey]++
	}
	return counts, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) load(path string) (*Call, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var call Call
	if err := json.Unmarshal(data, &call); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return &call, nil
}

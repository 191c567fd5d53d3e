package endpoints

import (
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerdenough/ai-storytime/internal/api"
	"github.com/nerdenough/ai-storytime/internal/book"
	"github.com/nerdenough/ai-storytime/internal/svcctx"
)

// DataEndpoint serves the book store directory so image urls resolve.
// Directory listings are not served.
type DataEndpoint struct{}

var _ api.Endpoint = (*DataEndpoint)(nil)

func (e *DataEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", book.DefaultURLPrefix + "/{path...}", e.handler
}

func (e *DataEndpoint) RequiresInit() bool {
	return true
}

func (e *DataEndpoint) Command(_ func() string) *cobra.Command {
	return nil
}

func (e *DataEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.BookStoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "book store not initialized")
		return
	}

	rel := r.PathValue("path")
	if rel == "" || strings.HasSuffix(rel, "/") {
		http.NotFound(w, r)
		return
	}

	fs := http.StripPrefix(book.DefaultURLPrefix, http.FileServer(http.Dir(store.Root())))
	fs.ServeHTTP(w, r)
}

package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerdenough/ai-storytime/internal/api"
	"github.com/nerdenough/ai-storytime/internal/book"
	"github.com/nerdenough/ai-storytime/internal/pipeline"
	"github.com/nerdenough/ai-storytime/internal/svcctx"
)

const maxCreateBody = 64 << 10

// BooksResponse lists stored book identifiers.
type BooksResponse struct {
	Books []string `json:"books"`
	Total int      `json:"total"`
}

// CreateBookEndpoint handles POST /api/books.
type CreateBookEndpoint struct{}

func (e *CreateBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books", e.handler
}

func (e *CreateBookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Create a book
//	@Description	Generate, persist and illustrate a new book from a prompt.
//	@Description	Runs synchronously; illustration failures never fail the request.
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			request	body		pipeline.CreateInput	true	"Book prompt and options"
//	@Success		201		{object}	book.Book
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/books [post]
func (e *CreateBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	p := svcctx.PipelineFrom(r.Context())
	if p == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not initialized")
		return
	}

	var req pipeline.CreateInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreateBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Kind:  pipeline.KindName(pipeline.ErrInvalidInput),
		})
		return
	}

	b, err := p.Create(r.Context(), req)
	if err != nil {
		if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
			logger.Warn("book creation failed",
				"kind", pipeline.KindName(err),
				"identifier", pipeline.IdentifierOf(err),
				"error", err)
		}
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, b)
}

func (e *CreateBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	var identifier string
	var paragraphs, maxLength int

	cmd := &cobra.Command{
		Use:   "create <prompt>",
		Short: "Generate a new illustrated book",
		Long: `Generate a new illustrated book from a story prompt.

The request blocks until the story is written and every illustration has been
attempted. With the markdown layout --identifier is required.`,
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{api.GroupAnnotation: "books"},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := pipeline.CreateInput{
				Prompt:     strings.Join(args, " "),
				Identifier: identifier,
			}
			if paragraphs > 0 || maxLength > 0 {
				req.Config = &pipeline.BookConfig{
					NumParagraphs:      paragraphs,
					MaxParagraphLength: maxLength,
				}
			}

			client := api.NewClient(getServerURL())
			var resp book.Book
			if err := client.Post(cmd.Context(), "/api/books", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&identifier, "identifier", "", "Book identifier (required for the markdown layout)")
	cmd.Flags().IntVar(&paragraphs, "paragraphs", 0, "Number of paragraphs (default from server config)")
	cmd.Flags().IntVar(&maxLength, "max-paragraph-length", 0, "Maximum words per paragraph (default from server config)")
	return cmd
}

// GetBookEndpoint handles GET /api/books/{id}.
type GetBookEndpoint struct{}

func (e *GetBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{id}", e.handler
}

func (e *GetBookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get book by identifier
//	@Tags			books
//	@Produce		json
//	@Param			id	path		string	true	"Book identifier"
//	@Success		200	{object}	book.Book
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/books/{id} [get]
func (e *GetBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "book id is required")
		return
	}

	p := svcctx.PipelineFrom(r.Context())
	if p == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not initialized")
		return
	}

	b, err := p.Get(r.Context(), id)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, b)
}

func (e *GetBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:         "get <id>",
		Short:       "Get a stored book",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{api.GroupAnnotation: "books"},
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp book.Book
			if err := client.Get(cmd.Context(), "/api/books/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ListBooksEndpoint handles GET /api/books.
type ListBooksEndpoint struct{}

func (e *ListBooksEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books", e.handler
}

func (e *ListBooksEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List books
//	@Description	Identifiers of every stored book, sorted
//	@Tags			books
//	@Produce		json
//	@Success		200	{object}	BooksResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/books [get]
func (e *ListBooksEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	p := svcctx.PipelineFrom(r.Context())
	if p == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not initialized")
		return
	}

	ids, err := p.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, BooksResponse{Books: ids, Total: len(ids)})
}

func (e *ListBooksEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Short:       "List stored books",
		Annotations: map[string]string{api.GroupAnnotation: "books"},
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp BooksResponse
			if err := client.Get(cmd.Context(), "/api/books", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// statusFor maps a pipeline error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrGenerationEmpty),
		errors.Is(err, pipeline.ErrMalformedModelOutput):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writePipelineError writes err with its kind and offending identifier.
func writePipelineError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), ErrorResponse{
		Error:      err.Error(),
		Kind:       pipeline.KindName(err),
		Identifier: pipeline.IdentifierOf(err),
	})
}

// Package pipeline turns one free-text prompt into a stored, illustrated book.
//
// A run moves through the stages in Stages() strictly in sequence. The
// language-model call and every image call are awaited one at a time; only
// the book store's directory namespace is shared between concurrent runs.
// Failures before the draft is persisted abort the run with an *Error.
// Failures while illustrating only leave that one image without a URL.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nerdenough/ai-storytime/internal/book"
	"github.com/nerdenough/ai-storytime/internal/caption"
	"github.com/nerdenough/ai-storytime/internal/identifier"
	"github.com/nerdenough/ai-storytime/internal/illustration"
	"github.com/nerdenough/ai-storytime/internal/llmcall"
	"github.com/nerdenough/ai-storytime/internal/prompts"
	"github.com/nerdenough/ai-storytime/internal/providers"
)

// Generation defaults.
const (
	DefaultNumParagraphs      = 5
	DefaultMaxParagraphLength = 20
	DefaultTemperature        = 0.9
	DefaultMaxTokens          = 750
	DefaultTokensPerWord      = 150

	DefaultPageWidth      = 768
	DefaultPageHeight     = 512
	DefaultPortraitWidth  = 512
	DefaultPortraitHeight = 512

	MaxPromptLength      = 2000
	MaxNumParagraphs     = 50
	MaxParagraphLength   = 500
	fallbackSlug         = "story"
	responseFormatSchema = "json_schema"
)

// Generation holds the tunables of a run.
type Generation struct {
	NumParagraphs      int
	MaxParagraphLength int
	// Temperature defaults when nil; zero asks for deterministic sampling.
	Temperature *float64
	// MaxTokens is used when the caller does not override the paragraph length.
	MaxTokens int
	// TokensPerWord scales the token budget when it does.
	TokensPerWord int

	PageWidth      int
	PageHeight     int
	PortraitWidth  int
	PortraitHeight int
}

func (g *Generation) applyDefaults() {
	if g.NumParagraphs == 0 {
		g.NumParagraphs = DefaultNumParagraphs
	}
	if g.MaxParagraphLength == 0 {
		g.MaxParagraphLength = DefaultMaxParagraphLength
	}
	if g.Temperature == nil {
		t := DefaultTemperature
		g.Temperature = &t
	}
	if g.MaxTokens == 0 {
		g.MaxTokens = DefaultMaxTokens
	}
	if g.TokensPerWord == 0 {
		g.TokensPerWord = DefaultTokensPerWord
	}
	if g.PageWidth == 0 || g.PageHeight == 0 {
		g.PageWidth, g.PageHeight = DefaultPageWidth, DefaultPageHeight
	}
	if g.PortraitWidth == 0 || g.PortraitHeight == 0 {
		g.PortraitWidth, g.PortraitHeight = DefaultPortraitWidth, DefaultPortraitHeight
	}
}

// Config configures a Pipeline.
type Config struct {
	Store *book.Store

	// Providers supplies the backends by name on every run, so a config
	// reload that swaps clients takes effect on the next book.
	Providers     *providers.Registry
	LLMProvider   string
	ImageProvider string
	// Model overrides the LLM provider's default model when set.
	Model string

	Prompts   *prompts.Resolver
	Composer  illustration.Composer
	Generator illustration.GeneratorConfig
	Recorder  *llmcall.Recorder
	Allocator identifier.Allocator

	Generation Generation

	// Seed draws the per-book seed. Defaults to a random 32-bit value.
	Seed func() int64

	Logger *slog.Logger
}

// Pipeline creates and reads books.
type Pipeline struct {
	store         *book.Store
	providers     *providers.Registry
	llmProvider   string
	imageProvider string
	model         string
	prompts       *prompts.Resolver
	composer      illustration.Composer
	generator     illustration.GeneratorConfig
	recorder      *llmcall.Recorder
	allocator     identifier.Allocator
	gen           Generation
	seed          func() int64
	logger        *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("book store is required")
	}
	if cfg.Providers == nil {
		return nil, fmt.Errorf("provider registry is required")
	}
	if cfg.LLMProvider == "" {
		return nil, fmt.Errorf("llm provider is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Prompts == nil {
		cfg.Prompts = prompts.NewResolver(cfg.Logger)
	}
	if cfg.Composer.StylePrefix == "" {
		cfg.Composer = illustration.NewComposer("")
	}
	if cfg.Generator.Logger == nil {
		cfg.Generator.Logger = cfg.Logger
	}
	if cfg.Recorder == nil {
		cfg.Recorder = llmcall.NewRecorder(nil, cfg.Logger)
	}
	if cfg.Seed == nil {
		cfg.Seed = func() int64 { return rand.Int64N(math.MaxUint32) }
	}
	cfg.Generation.applyDefaults()

	return &Pipeline{
		store:         cfg.Store,
		providers:     cfg.Providers,
		llmProvider:   cfg.LLMProvider,
		imageProvider: cfg.ImageProvider,
		model:         cfg.Model,
		prompts:       cfg.Prompts,
		composer:      cfg.Composer,
		generator:     cfg.Generator,
		recorder:      cfg.Recorder,
		allocator:     cfg.Allocator,
		gen:           cfg.Generation,
		seed:          cfg.Seed,
		logger:        cfg.Logger,
	}, nil
}

// BookConfig optionally overrides the story shape for one book.
type BookConfig struct {
	NumParagraphs      int `json:"numParagraphs,omitempty"`
	MaxParagraphLength int `json:"maxParagraphLength,omitempty"`
}

// CreateInput is the input of Create.
type CreateInput struct {
	Prompt string `json:"prompt"`
	// Identifier is required with the markdown layout. With the JSON layout it
	// replaces the title as the slug the allocator starts from.
	Identifier string      `json:"identifier,omitempty"`
	Config     *BookConfig `json:"config,omitempty"`
}

// run is the state of one Create call.
type run struct {
	p      *Pipeline
	input  CreateInput
	stage  Stage
	id     string
	seed   int64
	logger *slog.Logger

	// claimed is set once the book directory belongs to this run.
	claimed bool
	// persisted is set once a record has been written.
	persisted bool
}

func (r *run) enter(s Stage) {
	r.stage = s
	r.logger.Info("pipeline stage", "stage", s, "identifier", r.id)
}

func (r *run) fail(kind, cause error) error {
	err := &Error{Kind: kind, Stage: r.stage, Identifier: r.id, Err: cause}
	r.stage = StageAborted
	if r.claimed && !r.persisted {
		if rerr := r.p.store.Release(r.id); rerr != nil {
			r.logger.Warn("failed to release book directory", "identifier", r.id, "error", rerr)
		}
	}
	r.logger.Warn("pipeline aborted", "stage", err.Stage, "identifier", r.id, "kind", KindName(err), "error", cause)
	return err
}

// Create runs the whole pipeline for one book and returns it. The returned
// book carries every illustration that succeeded; the stored record does too.
func (p *Pipeline) Create(ctx context.Context, input CreateInput) (*book.Book, error) {
	r := &run{
		p:      p,
		input:  input,
		seed:   p.seed(),
		logger: p.logger,
	}

	r.enter(StageValidating)
	params, err := r.validate()
	if err != nil {
		return nil, err
	}

	r.enter(StageGenerating)
	text, err := r.generate(ctx, params)
	if err != nil {
		return nil, err
	}

	r.enter(StageParsingResult)
	b, err := r.parse(text)
	if err != nil {
		return nil, err
	}

	r.enter(StageAllocatingStorage)
	if err := r.allocate(ctx, b); err != nil {
		return nil, err
	}

	r.enter(StagePersistingDraft)
	if err := p.store.Write(b); err != nil {
		return nil, r.fail(ErrStorageWriteFailed, err)
	}
	r.persisted = true

	gen := r.generatorFor()

	r.enter(StageIllustratingPages)
	pages := r.illustratePages(ctx, gen, b)

	r.enter(StageIllustratingCharacters)
	portraits := r.illustrateCharacters(ctx, gen, b)

	if pages+portraits > 0 {
		if err := p.store.Write(b); err != nil {
			r.logger.Error("failed to persist illustrated book", "identifier", r.id, "error", err)
		}
	}

	r.enter(StageDone)
	r.logger.Info("book created", "identifier", r.id, "pages", len(b.Pages), "characters", len(b.Characters),
		"illustrated_pages", pages, "illustrated_characters", portraits, "seed", r.seed)
	return b, nil
}

// genParams is what Validating resolves for Generating.
type genParams struct {
	promptKey   string
	data        prompts.BookData
	maxTokens   int
	temperature float64
}

func (r *run) validate() (*genParams, error) {
	in := r.input
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return nil, r.fail(ErrInvalidInput, errors.New("prompt is required"))
	}
	if len(prompt) > MaxPromptLength {
		return nil, r.fail(ErrInvalidInput, fmt.Errorf("prompt longer than %d bytes", MaxPromptLength))
	}

	params := &genParams{
		data: prompts.BookData{
			Prompt:             strings.TrimRight(prompt, ". "),
			NumParagraphs:      r.p.gen.NumParagraphs,
			MaxParagraphLength: r.p.gen.MaxParagraphLength,
		},
		maxTokens:   r.p.gen.MaxTokens,
		temperature: *r.p.gen.Temperature,
	}
	if c := in.Config; c != nil {
		if c.NumParagraphs < 0 || c.NumParagraphs > MaxNumParagraphs {
			return nil, r.fail(ErrInvalidInput, fmt.Errorf("numParagraphs must be between 1 and %d", MaxNumParagraphs))
		}
		if c.MaxParagraphLength < 0 || c.MaxParagraphLength > MaxParagraphLength {
			return nil, r.fail(ErrInvalidInput, fmt.Errorf("maxParagraphLength must be between 1 and %d", MaxParagraphLength))
		}
		if c.NumParagraphs > 0 {
			params.data.NumParagraphs = c.NumParagraphs
		}
		if c.MaxParagraphLength > 0 {
			params.data.MaxParagraphLength = c.MaxParagraphLength
			params.maxTokens = r.p.gen.TokensPerWord * c.MaxParagraphLength
		}
	}

	if _, ok := r.p.store.Layout().(book.MarkdownLayout); ok {
		params.promptKey = prompts.BookMarkdownKey
		// The caller names the book; claim it now so a taken name costs no model call.
		if in.Identifier == "" {
			return nil, r.fail(ErrInvalidInput, errors.New("identifier is required"))
		}
		if err := identifier.Validate(in.Identifier); err != nil {
			return nil, r.fail(ErrInvalidInput, err)
		}
		r.id = in.Identifier
		if err := r.p.store.Create(in.Identifier); err != nil {
			kind := ErrStorageWriteFailed
			if errors.Is(err, ErrAlreadyExists) {
				kind = ErrAlreadyExists
			}
			return nil, r.fail(kind, err)
		}
		r.claimed = true
		return params, nil
	}

	params.promptKey = prompts.BookJSONKey
	if in.Identifier != "" && identifier.Slugify(in.Identifier) == "" {
		return nil, r.fail(ErrInvalidInput, fmt.Errorf("identifier %q has no usable characters", in.Identifier))
	}
	return params, nil
}

func (r *run) generate(ctx context.Context, params *genParams) (string, error) {
	client, err := r.p.providers.GetLLM(r.p.llmProvider)
	if err != nil {
		return "", r.fail(ErrGenerationEmpty, err)
	}

	text, resolved, err := r.p.prompts.Render(params.promptKey, params.data)
	if err != nil {
		return "", r.fail(ErrInvalidInput, err)
	}

	req := &providers.ChatRequest{
		Messages:    []providers.Message{{Role: "user", Content: text}},
		Model:       r.p.model,
		Temperature: &params.temperature,
		MaxTokens:   params.maxTokens,
	}
	if params.promptKey == prompts.BookJSONKey {
		req.ResponseFormat = &providers.ResponseFormat{
			Type:       responseFormatSchema,
			JSONSchema: prompts.BookSchema(),
		}
	}

	result, chatErr := client.Chat(ctx, req)
	r.p.recorder.Record(result, llmcall.RecordOptions{
		BookID:      r.id,
		PromptKey:   resolved.Key,
		PromptHash:  resolved.Hash,
		Prompt:      text,
		Temperature: &params.temperature,
		MaxTokens:   params.maxTokens,
	})
	if chatErr != nil {
		return "", r.fail(ErrGenerationEmpty, chatErr)
	}
	if result == nil || strings.TrimSpace(result.Content) == "" {
		return "", r.fail(ErrGenerationEmpty, nil)
	}
	return result.Content, nil
}

func (r *run) parse(text string) (*book.Book, error) {
	if _, ok := r.p.store.Layout().(book.MarkdownLayout); ok {
		extracted := caption.Extract(text)
		title, pages := book.PagesFromMarkdown(extracted.Text)
		return &book.Book{
			Identifier: r.id,
			Title:      title,
			Prompt:     r.input.Prompt,
			Pages:      pages,
			Markdown:   extracted.Text,
		}, nil
	}

	b, err := prompts.DecodeBook(text)
	if err != nil {
		r.logger.Error("model output is not a book record", "response", text, "error", err)
		return nil, r.fail(ErrMalformedModelOutput, err)
	}
	for _, note := range b.Normalize() {
		r.logger.Warn("book record adjusted", "change", note)
	}
	b.Prompt = r.input.Prompt
	b.Markdown = ""
	return b, nil
}

func (r *run) allocate(ctx context.Context, b *book.Book) error {
	if r.claimed {
		b.Identifier = r.id
		return nil
	}

	desired := identifier.Slugify(r.input.Identifier)
	if desired == "" {
		desired = identifier.Slugify(b.Title)
	}
	if desired == "" {
		desired = fallbackSlug
	}

	id, err := r.p.allocator.Allocate(ctx, desired, r.p.store.Create)
	if err != nil {
		r.id = desired
		switch {
		case errors.Is(err, ErrIdentifierExhausted):
			return r.fail(ErrIdentifierExhausted, err)
		case errors.Is(err, identifier.ErrInvalid):
			return r.fail(ErrInvalidInput, err)
		default:
			return r.fail(ErrStorageWriteFailed, err)
		}
	}
	r.id = id
	r.claimed = true
	b.Identifier = id
	return nil
}

// generatorFor binds the configured image backend for this run. A missing
// backend leaves every illustration skipped rather than failing the book.
func (r *run) generatorFor() *illustration.Generator {
	cfg := r.p.generator
	if r.p.imageProvider != "" {
		backend, err := r.p.providers.GetImage(r.p.imageProvider)
		if err != nil {
			r.logger.Warn("image backend unavailable", "provider", r.p.imageProvider, "error", err)
		} else {
			cfg.Backend = backend
		}
	}
	return illustration.NewGenerator(cfg)
}

func (r *run) illustratePages(ctx context.Context, gen *illustration.Generator, b *book.Book) int {
	done := 0
	for i := range b.Pages {
		img := b.Pages[i].Image
		if img == nil {
			break
		}
		out, err := gen.Illustrate(ctx, illustration.Request{
			Image:   img,
			Dir:     filepath.Join(r.p.store.Dir(b.Identifier), book.ImagesDir),
			Stem:    strconv.Itoa(i),
			URLBase: r.p.store.URL(b.Identifier, book.ImagesDir),
			Prompt:  r.p.composer.PagePrompt(img, b),
			Seed:    r.seed,
			Width:   r.p.gen.PageWidth,
			Height:  r.p.gen.PageHeight,
		})
		if err != nil {
			continue
		}
		b.Pages[i].Image = out
		done++
	}
	return done
}

func (r *run) illustrateCharacters(ctx context.Context, gen *illustration.Generator, b *book.Book) int {
	if len(b.Characters) == 0 {
		return 0
	}
	if !hasSubdir(r.p.store.Layout(), book.CharactersDir) {
		r.logger.Info("layout has no character directory, skipping portraits", "layout", r.p.store.Layout().Name())
		return 0
	}

	done := 0
	for i := range b.Characters {
		ch := &b.Characters[i]
		if ch.Image == nil {
			break
		}
		out, err := gen.Illustrate(ctx, illustration.Request{
			Image:   ch.Image,
			Dir:     filepath.Join(r.p.store.Dir(b.Identifier), book.CharactersDir),
			Stem:    strconv.Itoa(i),
			URLBase: r.p.store.URL(b.Identifier, book.CharactersDir),
			Prompt:  r.p.composer.PortraitPrompt(ch, b),
			Seed:    r.seed,
			Width:   r.p.gen.PortraitWidth,
			Height:  r.p.gen.PortraitHeight,
		})
		if err != nil {
			continue
		}
		ch.Image = out
		done++
	}
	return done
}

func hasSubdir(l book.Layout, name string) bool {
	for _, d := range l.Subdirs() {
		if d == name {
			return true
		}
	}
	return false
}

// Get returns a stored book.
func (p *Pipeline) Get(ctx context.Context, id string) (*book.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := p.store.Read(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &Error{Kind: ErrNotFound, Identifier: id, Err: err}
		}
		return nil, err
	}
	return b, nil
}

// List returns the identifiers of every stored book.
func (p *Pipeline) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.store.List()
}

// Store returns the pipeline's book store.
func (p *Pipeline) Store() *book.Store {
	return p.store
}

// Backends returns the names of the configured language-model and image backends.
func (p *Pipeline) Backends() (llm, image string) {
	return p.llmProvider, p.imageProvider
}

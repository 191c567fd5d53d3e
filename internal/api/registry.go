package api

import (
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a new endpoint registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an endpoint to the registry.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// RegisterRoutes registers all endpoint HTTP routes with the given mux.
// initMiddleware wraps handlers that require full server initialization.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, initMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = initMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// BuildCommands returns a cobra.Command tree for all registered endpoints.
// Commands that share a parent name (books, llmcalls) are grouped under it.
// getServerURL is called at runtime to get the server URL.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running storytime server via HTTP.

These commands require a running server (storytime serve).
Use --server to specify a custom server URL.

Examples:
  storytime api health                        # Check server health
  storytime api books create "a brave turtle" # Generate a book
  storytime api books get a-brave-turtle      # Fetch a stored book`,
	}

	groups := make(map[string]*cobra.Command)
	for _, ep := range r.endpoints {
		cmd := ep.Command(getServerURL)
		if cmd == nil {
			continue
		}
		g := groupOf(cmd)
		if g == "" {
			apiCmd.AddCommand(cmd)
			continue
		}
		parent, ok := groups[g]
		if !ok {
			parent = &cobra.Command{Use: g, Short: "Commands for " + g}
			groups[g] = parent
			apiCmd.AddCommand(parent)
		}
		parent.AddCommand(cmd)
	}

	return apiCmd
}

// GroupAnnotation is the cobra annotation naming a command's parent group.
const GroupAnnotation = "group"

func groupOf(cmd *cobra.Command) string {
	return strings.TrimSpace(cmd.Annotations[GroupAnnotation])
}

// Endpoints returns all registered endpoints.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}

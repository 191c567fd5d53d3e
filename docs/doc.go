// Package docs provides the OpenAPI documentation for the storytime server.
//
// Storytime API
//
//	@title			Storytime API
//	@version		1.0
//	@description	Illustrated children's book generation: a language model writes the story,
//	@description	an image backend paints the pages.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/nerdenough/ai-storytime
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/storytime/serve.go -o . --outputTypes go --parseDependency --parseInternal

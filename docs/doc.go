// Package docs provides generated OpenAPI documentation.
//
// Extract API
//
//	@title			Extract API
//	@version		1.0
//	@description	Structured data extraction API backed by LLM function calling.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/extract
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8765
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/extract/serve.go -o . --parseDependency --parseInternal

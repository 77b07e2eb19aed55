// Package domain defines the core business entities for the Xingyun AI core.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: a contiguous slice of a source document, the unit of embedding
//   - RetrievalResult: a ranked knowledge-base hit for a query
//   - Operation: a proposed document mutation returned to the caller
//   - AssistantRequest / AssistantResponse: the unified chat envelope
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

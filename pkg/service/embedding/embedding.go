// Package embedding provides interfaces.Embedder implementations.
package embedding

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrEmptyInput is returned when the text to embed is empty
	ErrEmptyInput = goerr.New("empty text to embed")

	// ErrFastEmbedNotAvailable is returned by binaries built without cgo
	ErrFastEmbedNotAvailable = goerr.New("fastembed is not available in a build without cgo")
)

// DefaultDimensions matches all-MiniLM-L6-v2
const DefaultDimensions = 384

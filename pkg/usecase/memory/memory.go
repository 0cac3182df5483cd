// Package memory implements the verified long-term memory: the verification
// gate and the store_information and retrieve_information operations.
package memory

import (
	_ "embed"
	"time"

	"github.com/m-mizutani/recall/pkg/interfaces"
)

//go:embed prompt/validate.md
var validatePrompt string

// DefaultSearchLimit is the number of memories returned by a retrieval
const DefaultSearchLimit = 10

type UseCase struct {
	llm      interfaces.LLM
	embedder interfaces.Embedder
	store    interfaces.MemoryStore

	validatePrompt string
	searchLimit    int
	now            func() time.Time
}

type Option func(*UseCase)

// WithValidatePrompt replaces the verification instruction
func WithValidatePrompt(prompt string) Option {
	return func(u *UseCase) {
		if prompt != "" {
			u.validatePrompt = prompt
		}
	}
}

func WithSearchLimit(limit int) Option {
	return func(u *UseCase) {
		if limit > 0 {
			u.searchLimit = limit
		}
	}
}

// WithClock sets the time source used for CreatedAt
func WithClock(now func() time.Time) Option {
	return func(u *UseCase) {
		u.now = now
	}
}

func New(llm interfaces.LLM, embedder interfaces.Embedder, store interfaces.MemoryStore, opts ...Option) *UseCase {
	u := &UseCase{
		llm:            llm,
		embedder:       embedder,
		store:          store,
		validatePrompt: validatePrompt,
		searchLimit:    DefaultSearchLimit,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

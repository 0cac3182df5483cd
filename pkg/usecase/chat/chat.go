package chat

import (
	_ "embed"

	"github.com/m-mizutani/recall/pkg/adapter"
	"github.com/m-mizutani/recall/pkg/interfaces"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/tool"
)

//go:embed prompt/assistant.md
var assistantPrompt string

//go:embed prompt/continue.md
var continuePrompt string

// DefaultMaxTurns bounds the AGENT steps of one run
const DefaultMaxTurns = 16

// UseCase drives the agent control loop over a memory tool executor
type UseCase struct {
	llm      interfaces.LLM
	executor tool.Executor

	assistantPrompt string
	continuePrompt  string
	maxTurns        int
	mapping         TurnMapping

	repo    interfaces.HistoryRepository
	storage adapter.Storage
}

type Option func(*UseCase)

// WithPrompts overrides the assistant and continue-chat instructions. Empty fields keep the defaults.
func WithPrompts(p model.Prompts) Option {
	return func(u *UseCase) {
		if p.Assistant != "" {
			u.assistantPrompt = p.Assistant
		}
		if p.ContinueChat != "" {
			u.continuePrompt = p.ContinueChat
		}
	}
}

func WithMaxTurns(n int) Option {
	return func(u *UseCase) {
		if n > 0 {
			u.maxTurns = n
		}
	}
}

func WithTurnMapping(m TurnMapping) Option {
	return func(u *UseCase) {
		u.mapping = m
	}
}

// WithHistory enables SaveHistory and LoadHistory
func WithHistory(repo interfaces.HistoryRepository, storage adapter.Storage) Option {
	return func(u *UseCase) {
		u.repo = repo
		u.storage = storage
	}
}

func New(llm interfaces.LLM, executor tool.Executor, opts ...Option) *UseCase {
	u := &UseCase{
		llm:             llm,
		executor:        executor,
		assistantPrompt: assistantPrompt,
		continuePrompt:  continuePrompt,
		maxTurns:        DefaultMaxTurns,
		mapping:         TurnMappingCompat,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

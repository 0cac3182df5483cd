package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/recall/pkg/interfaces"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/urfave/cli/v3"
)

type stubLLM struct {
	interfaces.LLM
}

func (s *stubLLM) Generate(ctx context.Context, messages []*model.Message, tools []*model.ToolSpec) (*model.Message, error) {
	return model.NewAssistantMessage("True"), nil
}

func newTestConfig() *config {
	return &config{
		logLevel:       "error",
		embedder:       "hashing",
		embeddingDims:  384,
		embeddingCache: 16,
		store:          "chromem",
		chromemMem:     true,
		collection:     "chatbot_info",
		searchLimit:    10,
		maxTurns:       16,
		turnMapping:    "by-role",
	}
}

func TestLoadPrompts(t *testing.T) {
	t.Run("no file keeps defaults", func(t *testing.T) {
		cfg := newTestConfig()
		prompts, err := cfg.loadPrompts()
		gt.NoError(t, err)
		gt.Equal(t, prompts, model.Prompts{})
	})

	t.Run("yaml overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompts.yaml")
		gt.NoError(t, os.WriteFile(path, []byte("validate: Answer only True or False\ncontinue_chat: Say end when done\n"), 0o600))

		cfg := newTestConfig()
		cfg.promptFile = path
		prompts, err := cfg.loadPrompts()
		gt.NoError(t, err)
		gt.Equal(t, prompts.Validate, "Answer only True or False")
		gt.Equal(t, prompts.ContinueChat, "Say end when done")
		gt.Equal(t, prompts.Assistant, "")
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.promptFile = filepath.Join(t.TempDir(), "nope.yaml")
		_, err := cfg.loadPrompts()
		gt.Error(t, err).Contains("failed to read prompt file")
	})
}

func TestNewEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("hashing with cache", func(t *testing.T) {
		cfg := newTestConfig()
		defer cfg.close()

		embedder, err := cfg.newEmbedder(ctx)
		gt.NoError(t, err)
		gt.Equal(t, embedder.Dimensions(), 384)

		vec, err := embedder.Embed(ctx, "Bananas are yellow")
		gt.NoError(t, err)
		gt.A(t, vec).Length(384)
	})

	t.Run("unsupported", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.embedder = "word2vec"
		_, err := cfg.newEmbedder(ctx)
		gt.Error(t, err).Contains("unsupported embedder")
	})
}

func TestNewMemoryStore(t *testing.T) {
	ctx := context.Background()

	cfg := newTestConfig()
	store, err := cfg.newMemoryStore(ctx)
	gt.NoError(t, err)
	gt.Equal(t, store.Dimensions(), 384)

	cfg.store = "redis"
	_, err = cfg.newMemoryStore(ctx)
	gt.Error(t, err).Contains("unsupported memory store")
}

func TestChromemPersistsByDefault(t *testing.T) {
	var cfg config
	var found int
	for _, f := range memoryFlags(&cfg) {
		switch f := f.(type) {
		case *cli.StringFlag:
			if f.Name == "chromem-path" {
				gt.Equal(t, f.Value, defaultChromemPath)
				found++
			}
		case *cli.BoolFlag:
			if f.Name == "chromem-in-memory" {
				gt.False(t, f.Value)
				found++
			}
		}
	}
	gt.Equal(t, found, 2)

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "memories")
	open := func() *config {
		cfg := newTestConfig()
		cfg.chromemMem = false
		cfg.chromemPath = dir
		return cfg
	}

	first := open()
	defer first.close()
	uc, err := first.newMemory(ctx, &stubLLM{})
	gt.NoError(t, err)
	gt.Equal(t, uc.StoreInformation(ctx, "fruit", "Bananas are yellow"),
		"Information stored for topic: fruit for future reference")

	second := open()
	defer second.close()
	uc, err = second.newMemory(ctx, &stubLLM{})
	gt.NoError(t, err)
	gt.Equal(t, uc.RetrieveInformation(ctx, "Bananas are yellow"), "Bananas are yellow (score: 2.00)")
}

func TestNewMemory(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig()
	defer cfg.close()

	uc, err := cfg.newMemory(ctx, &stubLLM{})
	gt.NoError(t, err)

	gt.Equal(t, uc.StoreInformation(ctx, "fruit", "Bananas are yellow"),
		"Information stored for topic: fruit for future reference")
	gt.S(t, uc.RetrieveInformation(ctx, "fruit")).HasPrefix("Bananas are yellow (score: ")
}

func TestNewExecutorExclusiveRemote(t *testing.T) {
	cfg := newTestConfig()
	cfg.memoryURL = "http://127.0.0.1:1"
	cfg.memoryCmd = "recall serve"

	_, err := cfg.newExecutor(context.Background(), &stubLLM{})
	gt.Error(t, err).Contains("exclusive")
}

func TestNewChatRejectsUnknownMapping(t *testing.T) {
	cfg := newTestConfig()
	cfg.turnMapping = "sideways"

	_, err := cfg.newChat(context.Background())
	gt.Error(t, err).Contains("unknown turn mapping")
}

func TestNewLLMUnsupported(t *testing.T) {
	cfg := newTestConfig()
	cfg.llmProvider = "gpt"
	_, err := cfg.newLLM(context.Background())
	gt.Error(t, err).Contains("unsupported llm provider")

	cfg.llmProvider = "claude"
	_, err = cfg.newLLM(context.Background())
	gt.Error(t, err).Contains("anthropic-api-key is required")
}

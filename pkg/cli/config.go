package cli

import (
	"context"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/adapter"
	"github.com/m-mizutani/recall/pkg/interfaces"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/repository"
	"github.com/m-mizutani/recall/pkg/service/embedding"
	"github.com/m-mizutani/recall/pkg/service/llm"
	"github.com/m-mizutani/recall/pkg/service/mcp"
	"github.com/m-mizutani/recall/pkg/tool"
	"github.com/m-mizutani/recall/pkg/usecase/chat"
	"github.com/m-mizutani/recall/pkg/usecase/memory"
	"github.com/m-mizutani/recall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// defaultChromemPath keeps memories across runs when no other store is configured
const defaultChromemPath = ".recall"

// config holds configuration values
type config struct {
	logLevel string

	// Firestore, shared by the memory store and history metadata
	project  string
	database string

	// LLM
	llmProvider     string
	geminiProject   string
	geminiLocation  string
	geminiModel     string
	anthropicAPIKey string
	claudeModel     string

	// Embedding
	embedder          string
	embeddingModel    string
	embeddingDims     int64
	embeddingCache    int64
	fastembedCacheDir string

	// Memory store
	store        string
	collection   string
	chromemPath  string
	chromemMem   bool
	qdrantHost   string
	qdrantPort   int64
	qdrantAPIKey string
	qdrantTLS    bool

	// Agent
	promptFile  string
	maxTurns    int64
	turnMapping string
	searchLimit int64
	memoryURL   string
	memoryCmd   string

	// History
	historyBucket string

	gemini    *adapter.GeminiClient
	firestore *repository.Firestore
	closers   []func()
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("RECALL_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID for Firestore",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm",
			Usage:       "Chat model provider (gemini, claude)",
			Value:       "gemini",
			Sources:     cli.EnvVars("RECALL_LLM"),
			Destination: &cfg.llmProvider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini generative model",
			Sources:     cli.EnvVars("RECALL_GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "claude-model",
			Usage:       "Claude model",
			Sources:     cli.EnvVars("RECALL_CLAUDE_MODEL"),
			Destination: &cfg.claudeModel,
		},
		&cli.StringFlag{
			Name:        "prompt-file",
			Usage:       "YAML file overriding assistant, validate and continue_chat prompts",
			Sources:     cli.EnvVars("RECALL_PROMPT_FILE"),
			Destination: &cfg.promptFile,
		},
	}
}

// memoryFlags returns flags for the embedder and the memory store
func memoryFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embedder",
			Usage:       "Embedding backend (fastembed, gemini, hashing)",
			Value:       "fastembed",
			Sources:     cli.EnvVars("RECALL_EMBEDDER"),
			Destination: &cfg.embedder,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name (fastembed model or Gemini embedding model)",
			Sources:     cli.EnvVars("RECALL_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
		&cli.IntFlag{
			Name:        "embedding-dimensions",
			Usage:       "Embedding dimensions, must match the memory store",
			Value:       embedding.DefaultDimensions,
			Sources:     cli.EnvVars("RECALL_EMBEDDING_DIMENSIONS"),
			Destination: &cfg.embeddingDims,
		},
		&cli.IntFlag{
			Name:        "embedding-cache",
			Usage:       "Number of embeddings kept in memory (0 disables the cache)",
			Value:       1024,
			Sources:     cli.EnvVars("RECALL_EMBEDDING_CACHE"),
			Destination: &cfg.embeddingCache,
		},
		&cli.StringFlag{
			Name:        "fastembed-cache-dir",
			Usage:       "Directory for downloaded fastembed models",
			Value:       "local_cache",
			Sources:     cli.EnvVars("RECALL_FASTEMBED_CACHE_DIR"),
			Destination: &cfg.fastembedCacheDir,
		},
		&cli.StringFlag{
			Name:        "store",
			Usage:       "Memory store (chromem, firestore, qdrant)",
			Value:       "chromem",
			Sources:     cli.EnvVars("RECALL_STORE"),
			Destination: &cfg.store,
		},
		&cli.StringFlag{
			Name:        "collection",
			Usage:       "Collection or index name of the memory store",
			Value:       repository.DefaultCollection,
			Sources:     cli.EnvVars("RECALL_COLLECTION"),
			Destination: &cfg.collection,
		},
		&cli.StringFlag{
			Name:        "chromem-path",
			Usage:       "Directory to persist the chromem store",
			Value:       defaultChromemPath,
			Sources:     cli.EnvVars("RECALL_CHROMEM_PATH"),
			Destination: &cfg.chromemPath,
		},
		&cli.BoolFlag{
			Name:        "chromem-in-memory",
			Usage:       "Keep the chromem store in process memory only (lost on exit)",
			Sources:     cli.EnvVars("RECALL_CHROMEM_IN_MEMORY"),
			Destination: &cfg.chromemMem,
		},
		&cli.StringFlag{
			Name:        "qdrant-host",
			Usage:       "Qdrant host",
			Value:       "localhost",
			Sources:     cli.EnvVars("RECALL_QDRANT_HOST"),
			Destination: &cfg.qdrantHost,
		},
		&cli.IntFlag{
			Name:        "qdrant-port",
			Usage:       "Qdrant gRPC port",
			Value:       6334,
			Sources:     cli.EnvVars("RECALL_QDRANT_PORT"),
			Destination: &cfg.qdrantPort,
		},
		&cli.StringFlag{
			Name:        "qdrant-api-key",
			Usage:       "Qdrant API key",
			Sources:     cli.EnvVars("RECALL_QDRANT_API_KEY"),
			Destination: &cfg.qdrantAPIKey,
		},
		&cli.BoolFlag{
			Name:        "qdrant-tls",
			Usage:       "Use TLS to connect to Qdrant",
			Sources:     cli.EnvVars("RECALL_QDRANT_TLS"),
			Destination: &cfg.qdrantTLS,
		},
		&cli.IntFlag{
			Name:        "search-limit",
			Usage:       "Maximum number of memories returned by retrieve_information",
			Value:       memory.DefaultSearchLimit,
			Sources:     cli.EnvVars("RECALL_SEARCH_LIMIT"),
			Destination: &cfg.searchLimit,
		},
	}
}

// agentFlags returns flags for the conversation loop
func agentFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "max-turns",
			Usage:       "Maximum number of model calls per user message",
			Value:       chat.DefaultMaxTurns,
			Sources:     cli.EnvVars("RECALL_MAX_TURNS"),
			Destination: &cfg.maxTurns,
		},
		&cli.StringFlag{
			Name:        "turn-mapping",
			Usage:       "How caller turns become model messages (by-role, compat)",
			Value:       "by-role",
			Sources:     cli.EnvVars("RECALL_TURN_MAPPING"),
			Destination: &cfg.turnMapping,
		},
		&cli.StringFlag{
			Name:        "memory-url",
			Usage:       "Use a remote recall MCP server over HTTP for memory tools",
			Sources:     cli.EnvVars("RECALL_MEMORY_URL"),
			Destination: &cfg.memoryURL,
		},
		&cli.StringFlag{
			Name:        "memory-command",
			Usage:       "Use a recall MCP server started by this command (stdio) for memory tools",
			Sources:     cli.EnvVars("RECALL_MEMORY_COMMAND"),
			Destination: &cfg.memoryCmd,
		},
	}
}

// historyFlags returns flags for transcript persistence
func historyFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "history-bucket",
			Usage:       "Cloud Storage bucket for conversation histories",
			Sources:     cli.EnvVars("RECALL_HISTORY_BUCKET"),
			Destination: &cfg.historyBucket,
		},
	}
}

// setup installs the logger and returns a context carrying it
func (cfg *config) setup(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// close releases every client opened by the constructors, newest first
func (cfg *config) close() {
	for i := len(cfg.closers) - 1; i >= 0; i-- {
		cfg.closers[i]()
	}
	cfg.closers = nil
}

func (cfg *config) onClose(fn func()) {
	cfg.closers = append(cfg.closers, fn)
}

// loadPrompts reads the prompt override file. Missing keys keep defaults.
func (cfg *config) loadPrompts() (model.Prompts, error) {
	var prompts model.Prompts
	if cfg.promptFile == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(cfg.promptFile)
	if err != nil {
		return prompts, goerr.Wrap(err, "failed to read prompt file", goerr.V("path", cfg.promptFile))
	}
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return prompts, goerr.Wrap(err, "failed to parse prompt file", goerr.V("path", cfg.promptFile))
	}
	return prompts, nil
}

// newGemini creates the Gemini adapter once and reuses it
func (cfg *config) newGemini(ctx context.Context) (*adapter.GeminiClient, error) {
	if cfg.gemini != nil {
		return cfg.gemini, nil
	}
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	var opts []adapter.GeminiOption
	if cfg.geminiModel != "" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.geminiModel))
	}
	if cfg.embedder == "gemini" && cfg.embeddingModel != "" {
		opts = append(opts, adapter.WithEmbeddingModel(cfg.embeddingModel))
	}

	client, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	cfg.gemini = client
	return client, nil
}

// newLLM creates the chat model selected by --llm
func (cfg *config) newLLM(ctx context.Context) (interfaces.LLM, error) {
	switch cfg.llmProvider {
	case "gemini":
		client, err := cfg.newGemini(ctx)
		if err != nil {
			return nil, err
		}
		return llm.NewGemini(client), nil

	case "claude":
		if cfg.anthropicAPIKey == "" {
			return nil, goerr.New("anthropic-api-key is required")
		}
		var opts []adapter.ClaudeOption
		if cfg.claudeModel != "" {
			opts = append(opts, adapter.WithClaudeModel(cfg.claudeModel))
		}
		return llm.NewClaude(adapter.NewClaude(cfg.anthropicAPIKey, opts...)), nil

	default:
		return nil, goerr.New("unsupported llm provider",
			goerr.V("llm", cfg.llmProvider),
			goerr.V("supported", []string{"gemini", "claude"}))
	}
}

// newEmbedder creates the embedder selected by --embedder, wrapped with a cache
func (cfg *config) newEmbedder(ctx context.Context) (interfaces.Embedder, error) {
	var base interfaces.Embedder

	switch cfg.embedder {
	case "fastembed":
		name := cfg.embeddingModel
		if name == "" {
			name = "all-MiniLM-L6-v2"
		}
		fe, err := embedding.NewFastEmbed(name, cfg.fastembedCacheDir)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create fastembed embedder")
		}
		cfg.onClose(func() { _ = fe.Close() })
		base = fe

	case "gemini":
		client, err := cfg.newGemini(ctx)
		if err != nil {
			return nil, err
		}
		base = embedding.NewGemini(client, int(cfg.embeddingDims))

	case "hashing":
		base = embedding.NewHashing(int(cfg.embeddingDims))

	default:
		return nil, goerr.New("unsupported embedder",
			goerr.V("embedder", cfg.embedder),
			goerr.V("supported", []string{"fastembed", "gemini", "hashing"}))
	}

	if base.Dimensions() != int(cfg.embeddingDims) {
		return nil, goerr.Wrap(interfaces.ErrDimensionMismatch, "embedder does not produce configured dimensions",
			goerr.V("embedder", cfg.embedder),
			goerr.V("embedder_dims", base.Dimensions()),
			goerr.V("configured_dims", cfg.embeddingDims))
	}

	if cfg.embeddingCache <= 0 {
		return base, nil
	}

	cached, err := embedding.NewCached(base, cfg.embeddingCache)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedding cache")
	}
	cfg.onClose(cached.Close)
	return cached, nil
}

// newFirestore opens a Firestore client for memories and history metadata
func (cfg *config) newFirestore(ctx context.Context) (*repository.Firestore, error) {
	if cfg.firestore != nil {
		return cfg.firestore, nil
	}
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database, int(cfg.embeddingDims),
		repository.WithFirestoreCollection(cfg.collection))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore repository")
	}
	cfg.onClose(func() { _ = repo.Close() })
	cfg.firestore = repo
	return repo, nil
}

// newMemoryStore creates the store selected by --store
func (cfg *config) newMemoryStore(ctx context.Context) (interfaces.MemoryStore, error) {
	dims := int(cfg.embeddingDims)

	switch cfg.store {
	case "chromem":
		opts := []repository.ChromemOption{repository.WithChromemCollection(cfg.collection)}
		if !cfg.chromemMem {
			path := cfg.chromemPath
			if path == "" {
				path = defaultChromemPath
			}
			opts = append(opts, repository.WithChromemPath(path, false))
		}
		store, err := repository.NewChromem(dims, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create chromem store")
		}
		return store, nil

	case "firestore":
		return cfg.newFirestore(ctx)

	case "qdrant":
		store, err := repository.NewQdrant(ctx, repository.QdrantConfig{
			Host:       cfg.qdrantHost,
			Port:       int(cfg.qdrantPort),
			APIKey:     cfg.qdrantAPIKey,
			UseTLS:     cfg.qdrantTLS,
			Collection: cfg.collection,
		}, dims)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create qdrant store")
		}
		cfg.onClose(func() { _ = store.Close() })
		return store, nil

	default:
		return nil, goerr.New("unsupported memory store",
			goerr.V("store", cfg.store),
			goerr.V("supported", []string{"chromem", "firestore", "qdrant"}))
	}
}

// newMemory wires the verification gate and memory tools
func (cfg *config) newMemory(ctx context.Context, chatModel interfaces.LLM) (*memory.UseCase, error) {
	prompts, err := cfg.loadPrompts()
	if err != nil {
		return nil, err
	}

	embedder, err := cfg.newEmbedder(ctx)
	if err != nil {
		return nil, err
	}

	store, err := cfg.newMemoryStore(ctx)
	if err != nil {
		return nil, err
	}

	if embedder.Dimensions() != store.Dimensions() {
		return nil, goerr.Wrap(interfaces.ErrDimensionMismatch, "embedder and memory store disagree",
			goerr.V("embedder_dims", embedder.Dimensions()),
			goerr.V("store_dims", store.Dimensions()))
	}

	return memory.New(chatModel, embedder, store,
		memory.WithValidatePrompt(prompts.Validate),
		memory.WithSearchLimit(int(cfg.searchLimit)),
	), nil
}

// newExecutor returns the memory tool executor, local or remote
func (cfg *config) newExecutor(ctx context.Context, chatModel interfaces.LLM) (tool.Executor, error) {
	var server *mcp.ServerConfig
	switch {
	case cfg.memoryURL != "" && cfg.memoryCmd != "":
		return nil, goerr.New("memory-url and memory-command are exclusive")
	case cfg.memoryURL != "":
		server = &mcp.ServerConfig{Transport: "http", URL: cfg.memoryURL}
	case cfg.memoryCmd != "":
		server = &mcp.ServerConfig{Transport: "stdio", Command: strings.Fields(cfg.memoryCmd)}
	}

	if server == nil {
		return cfg.newMemory(ctx, chatModel)
	}

	remote, err := mcp.Connect(ctx, *server, version)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to memory server")
	}
	cfg.onClose(func() { _ = remote.Close() })
	logging.From(ctx).Info("using remote memory server", "transport", server.Transport)
	return remote, nil
}

// newChat wires the conversation loop. History persistence is enabled
// when a bucket is configured.
func (cfg *config) newChat(ctx context.Context) (*chat.UseCase, error) {
	prompts, err := cfg.loadPrompts()
	if err != nil {
		return nil, err
	}

	mapping, err := chat.ParseTurnMapping(cfg.turnMapping)
	if err != nil {
		return nil, err
	}

	chatModel, err := cfg.newLLM(ctx)
	if err != nil {
		return nil, err
	}

	executor, err := cfg.newExecutor(ctx, chatModel)
	if err != nil {
		return nil, err
	}

	opts := []chat.Option{
		chat.WithPrompts(prompts),
		chat.WithMaxTurns(int(cfg.maxTurns)),
		chat.WithTurnMapping(mapping),
	}

	if cfg.historyBucket != "" {
		storage, err := cfg.newStorage(ctx, cfg.historyBucket)
		if err != nil {
			return nil, err
		}
		repo, err := cfg.newFirestore(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chat.WithHistory(repo, storage))
	}

	return chat.New(chatModel, executor, opts...), nil
}

// newStorage creates a new Storage adapter instance
func (cfg *config) newStorage(ctx context.Context, bucketName string) (adapter.Storage, error) {
	if bucketName == "" {
		return nil, goerr.New("bucket name is required")
	}

	storage, err := adapter.NewStorage(ctx, bucketName)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

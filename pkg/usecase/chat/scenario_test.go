package chat_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/recall/pkg/adapter"
	"github.com/m-mizutani/recall/pkg/interfaces"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/repository"
	"github.com/m-mizutani/recall/pkg/service/embedding"
	"github.com/m-mizutani/recall/pkg/service/llm"
	"github.com/m-mizutani/recall/pkg/usecase/chat"
	"github.com/m-mizutani/recall/pkg/usecase/memory"
)

// gateLLM approves every fact and otherwise follows the agent script
type gateLLM struct {
	scriptedLLM
}

func (g *gateLLM) Generate(ctx context.Context, messages []*model.Message, tools []*model.ToolSpec) (*model.Message, error) {
	if tools == nil && strings.HasPrefix(messages[len(messages)-1].Content, "topic: ") {
		return model.NewAssistantMessage("True"), nil
	}
	return g.scriptedLLM.Generate(ctx, messages, tools)
}

func TestRememberThenRecall(t *testing.T) {
	ctx := context.Background()
	store, err := repository.NewChromem(embedding.DefaultDimensions)
	gt.NoError(t, err)

	g := &gateLLM{}
	g.agent = func(call int, messages []*model.Message) (*model.Message, error) {
		last := messages[len(messages)-1]
		switch call {
		case 1:
			return toolCallMessage("c1", "store_information", map[string]any{
				"topic": "Geography", "information": "Paris is the capital of France",
			}), nil
		case 2:
			return model.NewAssistantMessage("Thanks, I stored it."), nil
		case 3:
			return toolCallMessage("c2", "retrieve_information", map[string]any{"topic": "capital of France"}), nil
		default:
			return model.NewAssistantMessage(last.Content), nil
		}
	}

	mem := memory.New(g, embedding.NewHashing(embedding.DefaultDimensions), store)
	uc := chat.New(g, mem, chat.WithTurnMapping(chat.TurnMappingByRole))

	turns := userTurn("Paris is the capital of France")
	answer, err := uc.Chatbot(ctx, turns)
	gt.NoError(t, err)
	gt.Equal(t, answer, "Thanks, I stored it.")

	turns = append(turns,
		model.Turn{Role: model.RoleAssistant, Content: answer},
		model.Turn{Role: model.RoleUser, Content: "What is the capital of France?"},
	)
	answer, err = uc.Chatbot(ctx, turns)
	gt.NoError(t, err)

	const prefix = "Paris is the capital of France (score: "
	gt.S(t, answer).HasPrefix(prefix)
	score, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimPrefix(answer, prefix), ")"), 64)
	gt.NoError(t, err)
	gt.True(t, score >= 1.0)
}

type mockHistoryRepo struct {
	interfaces.HistoryRepository
	histories map[model.HistoryID]*model.History
}

func (m *mockHistoryRepo) PutHistory(ctx context.Context, history *model.History) error {
	copied := *history
	copied.Turns = nil
	m.histories[history.ID] = &copied
	return nil
}

func (m *mockHistoryRepo) GetHistory(ctx context.Context, id model.HistoryID) (*model.History, error) {
	h, ok := m.histories[id]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrHistoryNotFound, "not found", goerr.V("id", id))
	}
	copied := *h
	return &copied, nil
}

type mockStorage struct {
	data map[string][]byte
}

func (m *mockStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return &mockWriteCloser{Buffer: &bytes.Buffer{}, storage: m, key: key}, nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, goerr.Wrap(adapter.ErrObjectNotFound, "data not found", goerr.V("key", key))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type mockWriteCloser struct {
	*bytes.Buffer
	storage *mockStorage
	key     string
}

func (m *mockWriteCloser) Close() error {
	m.storage.data[m.key] = m.Buffer.Bytes()
	return nil
}

func TestSaveAndLoadHistory(t *testing.T) {
	ctx := context.Background()
	repo := &mockHistoryRepo{histories: map[model.HistoryID]*model.History{}}
	storage := &mockStorage{data: map[string][]byte{}}
	uc := chat.New(&scriptedLLM{}, &mockExecutor{}, chat.WithHistory(repo, storage))

	history := &model.History{Turns: []model.Turn{
		{Role: model.RoleUser, Content: "Paris is the capital of France"},
		{Role: model.RoleAssistant, Content: "Thanks!"},
	}}
	gt.NoError(t, uc.SaveHistory(ctx, history))
	gt.NotEqual(t, history.ID, model.HistoryID(""))
	gt.Equal(t, history.Title, "Paris is the capital of France")
	gt.Map(t, storage.data).HasKey("histories/" + history.ID.String() + ".json")

	loaded, err := uc.LoadHistory(ctx, history.ID)
	gt.NoError(t, err)
	gt.Equal(t, loaded.Turns, history.Turns)
	gt.Equal(t, loaded.Title, history.Title)

	_, err = uc.LoadHistory(ctx, model.NewHistoryID())
	gt.Error(t, err).Is(interfaces.ErrHistoryNotFound)
}

func TestHistoryDisabled(t *testing.T) {
	uc := chat.New(&scriptedLLM{}, &mockExecutor{})
	gt.Error(t, uc.SaveHistory(context.Background(), &model.History{}))
}

func TestChatbotWithGemini(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, projectID, "us-central1")
	gt.NoError(t, err)

	store, err := repository.NewChromem(embedding.DefaultDimensions)
	gt.NoError(t, err)

	gemini := llm.NewGemini(client)
	mem := memory.New(gemini, embedding.NewHashing(embedding.DefaultDimensions), store)
	uc := chat.New(gemini, mem, chat.WithTurnMapping(chat.TurnMappingByRole))

	_, err = uc.Chatbot(ctx, userTurn("Please remember: Paris is the capital of France."))
	gt.NoError(t, err)

	answer, err := mem.Search(ctx, "capital of France")
	gt.NoError(t, err)
	gt.A(t, answer).Longer(0)
	t.Log("top memory:", answer[0].Memory.Information, answer[0].Score)
}

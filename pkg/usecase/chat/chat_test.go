package chat_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/recall/pkg/interfaces"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/tool"
	"github.com/m-mizutani/recall/pkg/usecase/chat"
)

// scriptedLLM separates agent calls (tools given) from judge calls (no tools)
type scriptedLLM struct {
	interfaces.LLM
	agent func(call int, messages []*model.Message) (*model.Message, error)
	judge func(text string) (string, error)

	agentCalls int
	judgeCalls []string
}

func (s *scriptedLLM) Generate(ctx context.Context, messages []*model.Message, tools []*model.ToolSpec) (*model.Message, error) {
	if tools == nil {
		text := messages[len(messages)-1].Content
		s.judgeCalls = append(s.judgeCalls, text)
		verdict := "continue"
		if s.judge != nil {
			var err error
			if verdict, err = s.judge(text); err != nil {
				return nil, err
			}
		}
		return model.NewAssistantMessage(verdict), nil
	}

	s.agentCalls++
	return s.agent(s.agentCalls, messages)
}

type mockExecutor struct {
	invocations []*tool.Invocation
	result      string
}

func (m *mockExecutor) Execute(ctx context.Context, inv *tool.Invocation) string {
	m.invocations = append(m.invocations, inv)
	return m.result
}

func toolCallMessage(id, name string, args map[string]any) *model.Message {
	return &model.Message{
		Role:     model.RoleAssistant,
		ToolCall: &model.ToolCall{ID: id, Name: name, Arguments: args},
	}
}

func userTurn(content string) []model.Turn {
	return []model.Turn{{Role: model.RoleUser, Content: content}}
}

func TestBuildTranscriptCompat(t *testing.T) {
	transcript := chat.BuildTranscript("sys", userTurn("hi"), chat.TurnMappingCompat)

	gt.A(t, transcript).Length(3)
	gt.Equal(t, transcript[0].Role, model.RoleSystem)
	gt.Equal(t, transcript[0].Content, "sys")
	gt.Equal(t, transcript[1].Role, model.RoleUser)
	gt.Equal(t, transcript[1].Content, "hi")
	gt.Equal(t, transcript[2].Role, model.RoleAssistant)
	gt.Equal(t, transcript[2].Content, "hi")
}

func TestBuildTranscriptCompatDuplicatesAssistant(t *testing.T) {
	turns := []model.Turn{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
		{Role: model.RoleUser, Content: "bye"},
	}
	transcript := chat.BuildTranscript("sys", turns, chat.TurnMappingCompat)

	var got []string
	for _, msg := range transcript[1:] {
		got = append(got, string(msg.Role)+":"+msg.Content)
	}
	gt.Equal(t, got, []string{
		"user:hi", "assistant:hi",
		"assistant:hello",
		"user:bye", "assistant:bye",
	})
}

func TestBuildTranscriptByRole(t *testing.T) {
	turns := []model.Turn{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
		{Role: model.RoleSystem, Content: "ignored"},
		{Role: model.RoleUser, Content: "bye"},
	}
	transcript := chat.BuildTranscript("sys", turns, chat.TurnMappingByRole)

	gt.A(t, transcript).Length(4)
	gt.Equal(t, transcript[1].Role, model.RoleUser)
	gt.Equal(t, transcript[2].Role, model.RoleAssistant)
	gt.Equal(t, transcript[2].Content, "hello")
	gt.Equal(t, transcript[3].Content, "bye")
}

func TestParseTurnMapping(t *testing.T) {
	m, err := chat.ParseTurnMapping("by-role")
	gt.NoError(t, err)
	gt.Equal(t, m, chat.TurnMappingByRole)

	m, err = chat.ParseTurnMapping("Compat")
	gt.NoError(t, err)
	gt.Equal(t, m, chat.TurnMappingCompat)

	_, err = chat.ParseTurnMapping("shuffle")
	gt.Error(t, err)
}

func TestPlainAnswer(t *testing.T) {
	llm := &scriptedLLM{
		agent: func(call int, messages []*model.Message) (*model.Message, error) {
			return model.NewAssistantMessage("The capital of France is Paris."), nil
		},
	}
	exec := &mockExecutor{}

	answer, err := chat.New(llm, exec).Chatbot(context.Background(), userTurn("What is the capital of France?"))
	gt.NoError(t, err)
	gt.Equal(t, answer, "The capital of France is Paris.")
	gt.Equal(t, llm.agentCalls, 1)
	gt.Equal(t, llm.judgeCalls, []string{"The capital of France is Paris."})
	gt.A(t, exec.invocations).Length(0)
}

func TestEndJudgmentWinsOverToolCall(t *testing.T) {
	llm := &scriptedLLM{
		agent: func(call int, messages []*model.Message) (*model.Message, error) {
			msg := toolCallMessage("c1", "store_information", map[string]any{"topic": "a", "information": "b"})
			msg.Content = "Goodbye!"
			return msg, nil
		},
		judge: func(text string) (string, error) { return "End", nil },
	}
	exec := &mockExecutor{}

	transcript, err := chat.New(llm, exec).Run(context.Background(), chat.BuildTranscript("sys", userTurn("bye"), chat.TurnMappingByRole))
	gt.NoError(t, err)
	gt.A(t, exec.invocations).Length(0)
	gt.Equal(t, transcript.Last().Content, "Goodbye!")
	gt.Equal(t, llm.agentCalls, 1)
}

func TestToolCallLoop(t *testing.T) {
	llm := &scriptedLLM{
		agent: func(call int, messages []*model.Message) (*model.Message, error) {
			if call == 1 {
				return toolCallMessage("c1", "retrieve_information", map[string]any{"topic": "France"}), nil
			}
			last := messages[len(messages)-1]
			return model.NewAssistantMessage("From memory: " + last.Content), nil
		},
	}
	exec := &mockExecutor{result: "Paris is the capital of France (score: 1.90)"}

	initial := chat.BuildTranscript("sys", userTurn("capital of France?"), chat.TurnMappingByRole)
	transcript, err := chat.New(llm, exec).Run(context.Background(), initial)
	gt.NoError(t, err)

	gt.A(t, transcript).Length(5)
	gt.True(t, transcript[2].HasToolCall())
	gt.Equal(t, transcript[3].Role, model.RoleTool)
	gt.Equal(t, transcript[3].ToolCallID, "c1")
	gt.Equal(t, transcript[3].ToolName, "retrieve_information")
	gt.Equal(t, transcript[3].Content, "Paris is the capital of France (score: 1.90)")
	gt.Equal(t, transcript[4].Content, "From memory: Paris is the capital of France (score: 1.90)")

	gt.A(t, exec.invocations).Length(1)
	gt.Equal(t, exec.invocations[0].Kind, tool.KindRetrieveInformation)
	gt.Equal(t, exec.invocations[0].Retrieve.Topic, "France")

	// bare tool call is not judged
	gt.A(t, llm.judgeCalls).Length(1)
	gt.A(t, initial).Length(2)
}

func TestMalformedToolCall(t *testing.T) {
	testCases := map[string]*model.Message{
		"unknown tool":     toolCallMessage("c1", "delete_information", map[string]any{"topic": "France"}),
		"missing argument": toolCallMessage("c1", "store_information", map[string]any{"topic": "France"}),
		"wrong type":       toolCallMessage("c1", "retrieve_information", map[string]any{"topic": 3.0}),
	}

	for name, bad := range testCases {
		t.Run(name, func(t *testing.T) {
			llm := &scriptedLLM{
				agent: func(call int, messages []*model.Message) (*model.Message, error) {
					if call == 1 {
						return bad, nil
					}
					return model.NewAssistantMessage("Sorry, something went wrong."), nil
				},
			}
			exec := &mockExecutor{}

			transcript, err := chat.New(llm, exec).Run(context.Background(), chat.BuildTranscript("sys", userTurn("x"), chat.TurnMappingByRole))
			gt.NoError(t, err)
			gt.A(t, exec.invocations).Length(0)

			result := transcript[3]
			gt.Equal(t, result.Role, model.RoleTool)
			gt.Equal(t, result.ToolCallID, "c1")
			gt.S(t, result.Content).HasPrefix("Error: ")
			gt.Equal(t, llm.agentCalls, 2)
		})
	}
}

func TestMaxTurnsExceeded(t *testing.T) {
	llm := &scriptedLLM{
		agent: func(call int, messages []*model.Message) (*model.Message, error) {
			return toolCallMessage("c", "retrieve_information", map[string]any{"topic": "loop"}), nil
		},
	}
	exec := &mockExecutor{result: "No relevant information was found for the topic: loop"}

	_, err := chat.New(llm, exec, chat.WithMaxTurns(3)).Chatbot(context.Background(), userTurn("x"))
	gt.Error(t, err).Is(chat.ErrMaxTurnsExceeded)
	gt.Equal(t, llm.agentCalls, 3)
	gt.A(t, exec.invocations).Length(3)
}

func TestProviderErrorAbortsTurn(t *testing.T) {
	llm := &scriptedLLM{
		agent: func(call int, messages []*model.Message) (*model.Message, error) {
			return nil, errors.New("service unavailable")
		},
	}

	_, err := chat.New(llm, &mockExecutor{}).Chatbot(context.Background(), userTurn("x"))
	gt.Error(t, err).Contains("service unavailable")
}

func TestJudgeErrorAbortsTurn(t *testing.T) {
	llm := &scriptedLLM{
		agent: func(call int, messages []*model.Message) (*model.Message, error) {
			return model.NewAssistantMessage("hello"), nil
		},
		judge: func(text string) (string, error) { return "", errors.New("judge down") },
	}

	_, err := chat.New(llm, &mockExecutor{}).Chatbot(context.Background(), userTurn("x"))
	gt.Error(t, err).Contains("judge down")
}

func TestPromptOverride(t *testing.T) {
	var system string
	llm := &scriptedLLM{
		agent: func(call int, messages []*model.Message) (*model.Message, error) {
			system = messages[0].Content
			return model.NewAssistantMessage("ok"), nil
		},
	}

	uc := chat.New(llm, &mockExecutor{}, chat.WithPrompts(model.Prompts{Assistant: "custom"}))
	_, err := uc.Chatbot(context.Background(), userTurn("x"))
	gt.NoError(t, err)
	gt.Equal(t, system, "custom")
}

func TestDefaultPrompts(t *testing.T) {
	transcript := chat.New(&scriptedLLM{}, &mockExecutor{}).BuildTranscript(userTurn("x"))
	gt.S(t, transcript[0].Content).Contains("store_information")
	gt.True(t, strings.TrimSpace(transcript[0].Content) != "")
}

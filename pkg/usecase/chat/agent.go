package chat

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/tool"
	"github.com/m-mizutani/recall/pkg/utils/logging"
)

// ErrMaxTurnsExceeded is returned when the loop needs more AGENT steps than allowed
var ErrMaxTurnsExceeded = goerr.New("max turns exceeded")

type state int

const (
	stateAgent state = iota
	stateAction
	stateEnd
)

func (s state) String() string {
	switch s {
	case stateAgent:
		return "AGENT"
	case stateAction:
		return "ACTION"
	case stateEnd:
		return "END"
	default:
		return "UNKNOWN"
	}
}

// Chatbot answers the latest caller turn and returns the final assistant text
func (u *UseCase) Chatbot(ctx context.Context, turns []model.Turn) (string, error) {
	transcript, err := u.Run(ctx, u.BuildTranscript(turns))
	if err != nil {
		return "", err
	}
	return transcript.Last().Content, nil
}

// Run drives the control loop from AGENT until END and returns the grown
// transcript. The given transcript is not modified.
func (u *UseCase) Run(ctx context.Context, initial model.Transcript) (model.Transcript, error) {
	transcript := make(model.Transcript, len(initial), len(initial)+4)
	copy(transcript, initial)

	logger := logging.From(ctx)
	current := stateAgent
	steps := 0

	for current != stateEnd {
		var next state
		switch current {
		case stateAgent:
			if steps >= u.maxTurns {
				return transcript, goerr.Wrap(ErrMaxTurnsExceeded, "agent did not finish",
					goerr.V("max_turns", u.maxTurns))
			}
			steps++

			reply, err := u.llm.Generate(ctx, transcript, tool.Specs())
			if err != nil {
				return transcript, goerr.Wrap(err, "failed to generate reply", goerr.V("step", steps))
			}
			transcript = append(transcript, reply)

			next, err = u.route(ctx, reply)
			if err != nil {
				return transcript, err
			}

		case stateAction:
			transcript, next = u.act(ctx, transcript)
		}

		logger.Debug("state transition", "from", current, "to", next, "step", steps)
		current = next
	}

	return transcript, nil
}

// route is the single conditional dispatch after an AGENT step. An end
// judgment wins, then a pending tool call, otherwise the run is over.
func (u *UseCase) route(ctx context.Context, reply *model.Message) (state, error) {
	proceed, err := u.shouldContinue(ctx, reply)
	if err != nil {
		return stateEnd, err
	}
	if !proceed {
		return stateEnd, nil
	}
	if reply.HasToolCall() {
		return stateAction, nil
	}
	return stateEnd, nil
}

// shouldContinue asks the model whether the conversation is over, judging
// only the latest message text. A message without text, such as a bare
// tool call, continues without asking.
func (u *UseCase) shouldContinue(ctx context.Context, latest *model.Message) (bool, error) {
	if strings.TrimSpace(latest.Content) == "" {
		return true, nil
	}

	resp, err := u.llm.Generate(ctx, []*model.Message{
		model.NewSystemMessage(u.continuePrompt),
		model.NewUserMessage(latest.Content),
	}, nil)
	if err != nil {
		return false, goerr.Wrap(err, "failed to judge conversation end")
	}

	return !strings.Contains(strings.ToLower(resp.Content), "end"), nil
}

// act runs the tool call of the latest message. A malformed call runs
// nothing and is answered with an error result.
func (u *UseCase) act(ctx context.Context, transcript model.Transcript) (model.Transcript, state) {
	latest := transcript.Last()
	if !latest.HasToolCall() {
		return transcript, stateEnd
	}

	logger := logging.From(ctx)
	call := latest.ToolCall

	var result string
	inv, err := tool.Parse(call)
	if err != nil {
		logger.Warn("rejected tool call", "name", call.Name, "error", err)
		result = "Error: " + err.Error()
	} else {
		logger.Info("dispatch tool", "name", call.Name, "kind", inv.Kind)
		result = u.executor.Execute(ctx, inv)
	}

	transcript = append(transcript, model.NewToolResultMessage(call, result))
	return transcript, hasNewMessages(transcript)
}

func hasNewMessages(transcript model.Transcript) state {
	if transcript.Last().Role == model.RoleTool {
		return stateAgent
	}
	return stateEnd
}

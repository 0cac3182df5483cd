package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/utils/logging"
)

// Verify asks the model whether information about topic is true. Only an
// exact "true" reply, ignoring case and surrounding space, approves.
func (u *UseCase) Verify(ctx context.Context, topic, information string) (bool, error) {
	messages := []*model.Message{
		model.NewSystemMessage(u.validatePrompt),
		model.NewUserMessage(fmt.Sprintf("topic: %s, information: %s", topic, information)),
	}

	reply, err := u.llm.Generate(ctx, messages, nil)
	if err != nil {
		return false, goerr.Wrap(err, "failed to verify information", goerr.V("topic", topic))
	}

	verdict := strings.ToLower(strings.TrimSpace(reply.Content))
	logging.From(ctx).Debug("verification verdict", "topic", topic, "verdict", verdict)

	return verdict == "true", nil
}

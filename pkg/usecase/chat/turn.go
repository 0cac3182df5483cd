package chat

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
)

// TurnMapping selects how caller turns become transcript messages
type TurnMapping int

const (
	// TurnMappingCompat emits a user message for each user turn and an
	// assistant message carrying the content of every turn. Earlier
	// assistant content is therefore duplicated.
	TurnMappingCompat TurnMapping = iota

	// TurnMappingByRole maps user turns to user messages and assistant
	// turns to assistant messages. Other roles are dropped.
	TurnMappingByRole
)

func (m TurnMapping) String() string {
	switch m {
	case TurnMappingCompat:
		return "compat"
	case TurnMappingByRole:
		return "by-role"
	default:
		return "unknown"
	}
}

// ParseTurnMapping accepts "compat" and "by-role"
func ParseTurnMapping(s string) (TurnMapping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compat":
		return TurnMappingCompat, nil
	case "by-role", "byrole", "role":
		return TurnMappingByRole, nil
	default:
		return 0, goerr.New("unknown turn mapping", goerr.V("mapping", s))
	}
}

// BuildTranscript prepends the system instruction and maps turns
func BuildTranscript(system string, turns []model.Turn, mapping TurnMapping) model.Transcript {
	transcript := model.Transcript{model.NewSystemMessage(system)}

	for _, turn := range turns {
		switch mapping {
		case TurnMappingByRole:
			switch turn.Role {
			case model.RoleUser:
				transcript = append(transcript, model.NewUserMessage(turn.Content))
			case model.RoleAssistant:
				transcript = append(transcript, model.NewAssistantMessage(turn.Content))
			}

		default:
			if turn.Role == model.RoleUser {
				transcript = append(transcript, model.NewUserMessage(turn.Content))
			}
			transcript = append(transcript, model.NewAssistantMessage(turn.Content))
		}
	}

	return transcript
}

// BuildTranscript uses the configured assistant instruction and mapping
func (u *UseCase) BuildTranscript(turns []model.Turn) model.Transcript {
	return BuildTranscript(u.assistantPrompt, turns, u.mapping)
}

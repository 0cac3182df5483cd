package tool

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
)

var (
	ErrUnknownTool      = goerr.New("unknown tool")
	ErrInvalidArguments = goerr.New("invalid tool arguments")
)

// Specs returns the tool definitions advertised to the model
func Specs() []*model.ToolSpec {
	return []*model.ToolSpec{
		{
			Name:        NameStoreInformation,
			Description: "Store a piece of information about a topic for future reference. The information is verified before it is saved.",
			Parameters: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"topic": {
						Type:        "string",
						Description: "Short subject the information is about",
					},
					"information": {
						Type:        "string",
						Description: "The fact to remember",
					},
				},
				Required: []string{"topic", "information"},
			},
		},
		{
			Name:        NameRetrieveInformation,
			Description: "Retrieve previously stored information relevant to a topic.",
			Parameters: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"topic": {
						Type:        "string",
						Description: "Subject to search stored information for",
					},
				},
				Required: []string{"topic"},
			},
		},
	}
}

// Parse validates a model tool call into an Invocation. Nothing is executed.
func Parse(call *model.ToolCall) (*Invocation, error) {
	if call == nil {
		return nil, goerr.Wrap(ErrInvalidArguments, "tool call is missing")
	}

	switch call.Name {
	case NameStoreInformation:
		topic, err := stringArg(call, "topic")
		if err != nil {
			return nil, err
		}
		information, err := stringArg(call, "information")
		if err != nil {
			return nil, err
		}
		return &Invocation{
			Kind:  KindStoreInformation,
			Store: &StoreArgs{Topic: topic, Information: information},
		}, nil

	case NameRetrieveInformation:
		topic, err := stringArg(call, "topic")
		if err != nil {
			return nil, err
		}
		return &Invocation{
			Kind:     KindRetrieveInformation,
			Retrieve: &RetrieveArgs{Topic: topic},
		}, nil

	default:
		return nil, goerr.Wrap(ErrUnknownTool, "tool is not available", goerr.V("name", call.Name))
	}
}

func stringArg(call *model.ToolCall, key string) (string, error) {
	raw, ok := call.Arguments[key]
	if !ok {
		return "", goerr.Wrap(ErrInvalidArguments, "missing argument",
			goerr.V("tool", call.Name),
			goerr.V("argument", key))
	}

	s, ok := raw.(string)
	if !ok {
		return "", goerr.Wrap(ErrInvalidArguments, "argument must be a string",
			goerr.V("tool", call.Name),
			goerr.V("argument", key),
			goerr.V("type", typeName(raw)))
	}
	return s, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}

package tool_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/tool"
)

func TestParse(t *testing.T) {
	type testCase struct {
		call    *model.ToolCall
		kind    tool.Kind
		wantErr error
	}

	runTest := func(tc testCase) func(t *testing.T) {
		return func(t *testing.T) {
			inv, err := tool.Parse(tc.call)
			if tc.wantErr != nil {
				gt.Error(t, err).Is(tc.wantErr)
				gt.V(t, inv).Nil()
				return
			}
			gt.NoError(t, err)
			gt.Equal(t, inv.Kind, tc.kind)
		}
	}

	t.Run("store", runTest(testCase{
		call: &model.ToolCall{Name: "store_information", Arguments: map[string]any{
			"topic": "France", "information": "Paris is the capital of France",
		}},
		kind: tool.KindStoreInformation,
	}))
	t.Run("retrieve", runTest(testCase{
		call: &model.ToolCall{Name: "retrieve_information", Arguments: map[string]any{"topic": "France"}},
		kind: tool.KindRetrieveInformation,
	}))
	t.Run("unknown tool", runTest(testCase{
		call:    &model.ToolCall{Name: "delete_information", Arguments: map[string]any{"topic": "France"}},
		wantErr: tool.ErrUnknownTool,
	}))
	t.Run("missing argument", runTest(testCase{
		call:    &model.ToolCall{Name: "store_information", Arguments: map[string]any{"topic": "France"}},
		wantErr: tool.ErrInvalidArguments,
	}))
	t.Run("non-string argument", runTest(testCase{
		call:    &model.ToolCall{Name: "retrieve_information", Arguments: map[string]any{"topic": 42.0}},
		wantErr: tool.ErrInvalidArguments,
	}))
	t.Run("nil arguments", runTest(testCase{
		call:    &model.ToolCall{Name: "retrieve_information"},
		wantErr: tool.ErrInvalidArguments,
	}))
	t.Run("nil call", runTest(testCase{
		wantErr: tool.ErrInvalidArguments,
	}))
}

func TestParseArgs(t *testing.T) {
	inv, err := tool.Parse(&model.ToolCall{Name: "store_information", Arguments: map[string]any{
		"topic": "France", "information": "Paris is the capital of France",
	}})
	gt.NoError(t, err)
	gt.V(t, inv.Store).NotNil()
	gt.Equal(t, inv.Store.Topic, "France")
	gt.Equal(t, inv.Store.Information, "Paris is the capital of France")
	gt.V(t, inv.Retrieve).Nil()
}

func TestSpecs(t *testing.T) {
	specs := tool.Specs()
	gt.A(t, specs).Length(2)
	gt.Equal(t, specs[0].Name, "store_information")
	gt.Equal(t, specs[0].Parameters.Required, []string{"topic", "information"})
	gt.Equal(t, specs[1].Name, "retrieve_information")
	gt.Equal(t, specs[1].Parameters.Required, []string{"topic"})
	gt.Equal(t, tool.KindStoreInformation.String(), "store_information")
}

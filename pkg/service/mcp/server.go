package mcp

import (
	"context"
	"net/http"

	"github.com/m-mizutani/recall/pkg/tool"
	"github.com/m-mizutani/recall/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "recall"

type storeParams struct {
	Topic       string `json:"topic" jsonschema:"Short subject the information is about"`
	Information string `json:"information" jsonschema:"The fact to remember"`
}

type retrieveParams struct {
	Topic string `json:"topic" jsonschema:"Subject to search stored information for"`
}

// NewServer exposes the memory tools of executor as an MCP server
func NewServer(executor tool.Executor, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        tool.NameStoreInformation,
		Description: "Store a piece of information about a topic for future reference. The information is verified before it is saved.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, params *storeParams) (*mcp.CallToolResult, any, error) {
		logging.From(ctx).Info("mcp store_information", "topic", params.Topic)
		return textResult(executor.Execute(ctx, &tool.Invocation{
			Kind:  tool.KindStoreInformation,
			Store: &tool.StoreArgs{Topic: params.Topic, Information: params.Information},
		})), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        tool.NameRetrieveInformation,
		Description: "Retrieve previously stored information relevant to a topic.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, params *retrieveParams) (*mcp.CallToolResult, any, error) {
		logging.From(ctx).Info("mcp retrieve_information", "topic", params.Topic)
		return textResult(executor.Execute(ctx, &tool.Invocation{
			Kind:     tool.KindRetrieveInformation,
			Retrieve: &tool.RetrieveArgs{Topic: params.Topic},
		})), nil, nil
	})

	return server
}

// NewHTTPHandler serves server over the streamable HTTP transport
func NewHTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, nil)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

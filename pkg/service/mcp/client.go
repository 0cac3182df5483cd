package mcp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/tool"
	"github.com/m-mizutani/recall/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ServerConfig describes how to reach a remote recall memory server
type ServerConfig struct {
	Transport string // "stdio" or "http"
	Command   []string
	URL       string
	Env       map[string]string
}

// Remote is a tool.Executor that forwards memory tools to an MCP server,
// so several chat front ends can share one memory.
type Remote struct {
	session *mcp.ClientSession
}

var _ tool.Executor = (*Remote)(nil)

// Connect opens a session and checks that both memory tools are offered
func Connect(ctx context.Context, cfg ServerConfig, version string) (*Remote, error) {
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create transport")
	}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    serverName,
		Version: version,
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to MCP server",
			goerr.V("transport", cfg.Transport))
	}

	return newRemote(ctx, session)
}

// ConnectTransport opens a session over an existing transport
func ConnectTransport(ctx context.Context, transport mcp.Transport, version string) (*Remote, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    serverName,
		Version: version,
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to MCP server")
	}

	return newRemote(ctx, session)
}

func newRemote(ctx context.Context, session *mcp.ClientSession) (*Remote, error) {
	result, err := session.ListTools(ctx, nil)
	if err != nil {
		_ = session.Close()
		return nil, goerr.Wrap(err, "failed to list tools")
	}

	offered := make(map[string]bool, len(result.Tools))
	for _, t := range result.Tools {
		offered[t.Name] = true
	}
	for _, name := range []string{tool.NameStoreInformation, tool.NameRetrieveInformation} {
		if !offered[name] {
			_ = session.Close()
			return nil, goerr.New("memory tool not offered by server", goerr.V("tool", name))
		}
	}

	return &Remote{session: session}, nil
}

func newTransport(cfg ServerConfig) (mcp.Transport, error) {
	switch cfg.Transport {
	case "stdio":
		if len(cfg.Command) == 0 {
			return nil, goerr.New("command is required for stdio transport")
		}
		cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...)
		if len(cfg.Env) > 0 {
			cmd.Env = os.Environ()
			for k, v := range cfg.Env {
				cmd.Env = append(cmd.Env, k+"="+v)
			}
		}
		return &mcp.CommandTransport{Command: cmd}, nil

	case "http":
		if cfg.URL == "" {
			return nil, goerr.New("url is required for http transport")
		}
		return &mcp.StreamableClientTransport{Endpoint: cfg.URL}, nil

	default:
		return nil, goerr.New("unsupported transport",
			goerr.V("transport", cfg.Transport),
			goerr.V("supported", []string{"stdio", "http"}))
	}
}

// Execute calls the remote tool. Transport failures become the same
// failure texts the local tools produce.
func (r *Remote) Execute(ctx context.Context, inv *tool.Invocation) string {
	var params *mcp.CallToolParams
	var failure string

	switch inv.Kind {
	case tool.KindStoreInformation:
		params = &mcp.CallToolParams{
			Name: tool.NameStoreInformation,
			Arguments: map[string]any{
				"topic":       inv.Store.Topic,
				"information": inv.Store.Information,
			},
		}
		failure = "Unable to save information: %s"
	case tool.KindRetrieveInformation:
		params = &mcp.CallToolParams{
			Name:      tool.NameRetrieveInformation,
			Arguments: map[string]any{"topic": inv.Retrieve.Topic},
		}
		failure = "Error recovering information: %s"
	default:
		return "Error: unknown tool kind " + inv.Kind.String()
	}

	result, err := r.session.CallTool(ctx, params)
	if err != nil {
		logging.From(ctx).Warn("remote tool call failed", "tool", params.Name, "error", err)
		return fmt.Sprintf(failure, err.Error())
	}

	var texts []string
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			texts = append(texts, text.Text)
		}
	}
	text := strings.Join(texts, "\n")

	// Server-side failures read like a rejected local call
	if result.IsError && !strings.HasPrefix(text, "Error:") {
		text = "Error: " + text
	}
	return text
}

func (r *Remote) Close() error {
	if err := r.session.Close(); err != nil {
		return goerr.Wrap(err, "failed to close MCP session")
	}
	return nil
}

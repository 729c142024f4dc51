package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	sdk_client "github.com/mark3labs/mcp-go/client"
	sdk_mcp "github.com/mark3labs/mcp-go/mcp"
)

// DefaultTool is the forecast tool called when WEATHER_MCP_TOOL is unset.
const DefaultTool = "get_forecast"

// mcpConfigFile mirrors the top-level structure of mcp.json.
type mcpConfigFile struct {
	MCPServers map[string]ServerConfig `json:"mcpServers"`
}

// ServerConfig describes a single MCP server connection.
// Name is populated from the map key in mcp.json, not from a JSON field.
type ServerConfig struct {
	Name      string
	Transport string   `json:"transport"`         // "stdio" | "sse"
	Command   string   `json:"command,omitempty"` // stdio: executable path
	Args      []string `json:"args,omitempty"`    // stdio: command arguments
	URL       string   `json:"url,omitempty"`     // sse: base URL
	Env       []string `json:"env,omitempty"`     // stdio: extra environment variables
}

// LoadConfig reads and parses mcp.json from path.
func LoadConfig(path string) (map[string]ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("weather: read mcp config %q: %w", path, err)
	}

	var file mcpConfigFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("weather: parse mcp config %q: %w", path, err)
	}

	servers := make(map[string]ServerConfig, len(file.MCPServers))
	for key, cfg := range file.MCPServers {
		cfg.Name = key
		servers[key] = cfg
	}
	return servers, nil
}

// pickServer returns the named server, or the only one when name is empty.
func pickServer(servers map[string]ServerConfig, name string) (ServerConfig, error) {
	if name != "" {
		cfg, ok := servers[name]
		if !ok {
			return ServerConfig{}, fmt.Errorf("weather: mcp server %q not found in config", name)
		}
		return cfg, nil
	}
	if len(servers) != 1 {
		names := make([]string, 0, len(servers))
		for n := range servers {
			names = append(names, n)
		}
		sort.Strings(names)
		return ServerConfig{}, fmt.Errorf("weather: set WEATHER_MCP_SERVER to one of %v", names)
	}
	for _, cfg := range servers {
		return cfg, nil
	}
	return ServerConfig{}, nil // unreachable
}

// toolCaller is the part of the mcp-go client the forecaster uses.
type toolCaller interface {
	CallTool(ctx context.Context, req sdk_mcp.CallToolRequest) (*sdk_mcp.CallToolResult, error)
	Close() error
}

// MCP asks a forecast tool on an MCP server. The tool receives
// {"date": ..., "city": ...} and its text content is the forecast.
type MCP struct {
	server string
	tool   string
	inner  toolCaller
}

// DialMCP starts the transport, performs the MCP initialize handshake and
// returns a forecaster calling tool on that server.
func DialMCP(ctx context.Context, cfg ServerConfig, tool string) (*MCP, error) {
	var inner *sdk_client.Client

	switch cfg.Transport {
	case "stdio":
		cli, err := sdk_client.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
		if err != nil {
			return nil, fmt.Errorf("weather: start stdio server %q: %w", cfg.Name, err)
		}
		inner = cli

	case "sse":
		cli, err := sdk_client.NewSSEMCPClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("weather: create SSE client %q: %w", cfg.Name, err)
		}
		if err := cli.Start(ctx); err != nil {
			return nil, fmt.Errorf("weather: start SSE client %q: %w", cfg.Name, err)
		}
		inner = cli

	default:
		return nil, fmt.Errorf("weather: unknown transport %q for server %q", cfg.Transport, cfg.Name)
	}

	_, err := inner.Initialize(ctx, sdk_mcp.InitializeRequest{
		Params: sdk_mcp.InitializeParams{
			ProtocolVersion: sdk_mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: sdk_mcp.Implementation{
				Name:    "pocket-agent",
				Version: "0.1.0",
			},
		},
	})
	if err != nil {
		_ = inner.Close()
		return nil, fmt.Errorf("weather: initialize server %q: %w", cfg.Name, err)
	}

	return newMCP(cfg.Name, tool, inner), nil
}

func newMCP(server, tool string, inner toolCaller) *MCP {
	if tool == "" {
		tool = DefaultTool
	}
	return &MCP{server: server, tool: tool, inner: inner}
}

// Forecast implements Forecaster.
//
// A tool result with IsError=true is returned as an error carrying the
// server-supplied message.
func (m *MCP) Forecast(ctx context.Context, date, city string) (string, error) {
	req := sdk_mcp.CallToolRequest{}
	req.Params.Name = m.tool
	req.Params.Arguments = map[string]any{"date": date, "city": city}

	result, err := m.inner.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("weather: call tool %q on %q: %w", m.tool, m.server, err)
	}

	var parts []string
	for _, content := range result.Content {
		if tc, ok := content.(sdk_mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))

	if result.IsError {
		return "", fmt.Errorf("weather: tool %q returned error: %s", m.tool, text)
	}
	if text == "" {
		return "", fmt.Errorf("weather: tool %q returned no text", m.tool)
	}
	return text, nil
}

// Close terminates the connection to the MCP server.
func (m *MCP) Close() error {
	return m.inner.Close()
}

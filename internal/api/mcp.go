package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/userdefaults/internal/defaults"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store  *defaults.Store
	Domain string // reported by the defaults://domain resource
}

// NewMCPServer creates an MCP server exposing one preferences domain.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"userdefaults",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("userdefaults: typed application preferences (long, double, string, string-array)."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("get_default",
			mcp.WithDescription("Read a preference. With kind, the value must have that kind (a long also reads as a double)."),
			mcp.WithString("key", mcp.Description("Preference key"), mcp.Required()),
			mcp.WithString("kind", mcp.Description("Expected kind"), mcp.Enum("long", "double", "string", "string-array")),
		),
		mcpGetDefault(deps),
	)

	s.AddTool(
		mcp.NewTool("set_default",
			mcp.WithDescription("Store a preference, replacing any previous value of any kind."),
			mcp.WithString("key", mcp.Description("Preference key"), mcp.Required()),
			mcp.WithString("kind", mcp.Description("Value kind"), mcp.Required(), mcp.Enum("long", "double", "string", "string-array")),
			mcp.WithString("value", mcp.Description("Value for long, double and string kinds")),
			mcp.WithArray("values", mcp.Description("Elements for the string-array kind"), mcp.WithStringItems()),
		),
		mcpSetDefault(deps),
	)

	s.AddTool(
		mcp.NewTool("delete_default",
			mcp.WithDescription("Remove a preference. Removing an absent key succeeds."),
			mcp.WithString("key", mcp.Description("Preference key"), mcp.Required()),
		),
		mcpDeleteDefault(deps),
	)

	s.AddTool(
		mcp.NewTool("list_defaults",
			mcp.WithDescription("List every preference in the domain with its kind and value."),
		),
		mcpListDefaults(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"defaults://domain",
			"Preferences Domain",
			mcp.WithResourceDescription("Every preference in the domain as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceDomain(deps),
	)

	return s
}

func mcpGetDefault(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}

		var (
			v  defaults.Value
			ok bool
		)
		if raw := req.GetString("kind", ""); raw != "" {
			kind, perr := defaults.ParseKind(raw)
			if perr != nil {
				return mcpError(perr.Error()), nil
			}
			v, ok, err = deps.Store.GetKind(kind, key)
		} else {
			v, ok, err = deps.Store.Lookup(key)
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to read %s: %v", key, err)), nil
		}
		if !ok {
			return mcpText(fmt.Sprintf("%s is not set", key)), nil
		}

		b, err := json.Marshal(defaults.Entry{Key: key, Value: v})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal value: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSetDefault(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}
		rawKind, err := req.RequireString("kind")
		if err != nil {
			return mcpError("kind is required"), nil
		}
		kind, err := defaults.ParseKind(rawKind)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		var v defaults.Value
		if kind == defaults.KindStringArray {
			v = defaults.StringArray(req.GetStringSlice("values", nil))
		} else {
			value, err := req.RequireString("value")
			if err != nil {
				return mcpError("value is required"), nil
			}
			if v, err = defaults.ParseValue(kind, value); err != nil {
				return mcpError(err.Error()), nil
			}
		}

		if err := deps.Store.Set(key, v); err != nil {
			return mcpError(fmt.Sprintf("failed to set %s: %v", key, err)), nil
		}
		return mcpText(fmt.Sprintf("Set %s (%s)", key, kind)), nil
	}
}

func mcpDeleteDefault(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}
		if err := deps.Store.Delete(key); err != nil {
			return mcpError(fmt.Sprintf("failed to delete %s: %v", key, err)), nil
		}
		return mcpText(fmt.Sprintf("Deleted %s", key)), nil
	}
}

func mcpListDefaults(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries, err := deps.Store.Entries()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list defaults: %v", err)), nil
		}
		b, err := json.Marshal(entries)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal defaults: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceDomain(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		entries, err := deps.Store.Entries()
		if err != nil {
			return nil, fmt.Errorf("failed to list defaults: %w", err)
		}

		b, err := json.Marshal(struct {
			Domain  string           `json:"domain"`
			Entries []defaults.Entry `json:"entries"`
		}{deps.Domain, entries})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal domain: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

package registry

import (
	"context"
	"encoding/json"

	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"github.com/supportmesh/supportmesh/tool"
)

// Attach registers every catalog tool on an MCP SSE server. Each call is
// answered with one text content item carrying the JSON result envelope;
// failed calls additionally set the protocol-level error flag.
func (r *Registry) Attach(srv *mcp.SSEServer) {
	for _, e := range r.entries {
		srv.RegisterTool(
			mcp.NewTool(e.schema.Name, toolOptions(e.schema)...),
			r.mcpHandler(e.schema.Name),
		)
	}
}

// toolOptions translates a catalog schema into wire tool declaration options.
func toolOptions(s tool.Schema) []mcp.ToolOption {
	opts := []mcp.ToolOption{mcp.WithDescription(s.Description)}
	for _, p := range s.Params {
		var paramOpts []mcp.PropertyOption
		if p.Required {
			paramOpts = append(paramOpts, mcp.Required())
		}
		if p.Description != "" {
			paramOpts = append(paramOpts, mcp.Description(p.Description))
		}
		switch p.Type {
		case tool.TypeString:
			opts = append(opts, mcp.WithString(p.Name, paramOpts...))
		default:
			opts = append(opts, mcp.WithNumber(p.Name, paramOpts...))
		}
	}
	return opts
}

func (r *Registry) mcpHandler(name string) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := r.Call(ctx, name, req.Params.Arguments)

		body, err := json.Marshal(res)
		if err != nil {
			res = tool.Fail(tool.Errorf(tool.CodeInternal, "encode result: %v", err))
			body = []byte(res.String())
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(string(body))},
			IsError: !res.OK,
		}, nil
	}
}

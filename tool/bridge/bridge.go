// Package bridge implements the tool client bridge: the one component that
// talks the tool-access protocol on behalf of an agent. It discovers the
// catalog once per process, validates calls locally against the cached
// schemas and decodes responses into result envelopes.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"github.com/supportmesh/supportmesh/log"
	"github.com/supportmesh/supportmesh/tool"
)

// session is the slice of the protocol client the bridge drives. The SSE
// client satisfies it; tests substitute a scripted fake.
type session interface {
	Initialize(ctx context.Context, req *mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, req *mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

var defaultClientInfo = mcp.Implementation{
	Name:    "supportmesh-bridge",
	Version: "1.0.0",
}

// Bridge is a lazy, cached tool-access client. The catalog is fetched once
// per process; tools are assumed static for the lifetime of the server.
type Bridge struct {
	url  string
	dial func() (session, error)

	mu      sync.RWMutex
	sess    session
	catalog map[string]tool.Schema
	order   []string

	sf singleflight.Group
}

// Option configures a Bridge.
type Option func(*Bridge)

// withDialer replaces the transport constructor. Used by tests.
func withDialer(dial func() (session, error)) Option {
	return func(b *Bridge) { b.dial = dial }
}

// New builds a bridge for the tool server at url. No connection is made
// until the first use.
func New(url string, opts ...Option) *Bridge {
	b := &Bridge{url: url}
	b.dial = func() (session, error) {
		client, err := mcp.NewSSEClient(b.url, defaultClientInfo)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ensureCatalog connects, initializes the session and fetches the tool list.
// Concurrent callers share one fetch; the result is cached for the process
// lifetime.
func (b *Bridge) ensureCatalog(ctx context.Context) error {
	b.mu.RLock()
	ready := b.catalog != nil
	b.mu.RUnlock()
	if ready {
		return nil
	}

	_, err, _ := b.sf.Do("catalog", func() (any, error) {
		b.mu.RLock()
		ready := b.catalog != nil
		b.mu.RUnlock()
		if ready {
			return nil, nil
		}

		sess, err := b.dial()
		if err != nil {
			return nil, fmt.Errorf("connecting to tool server %s: %w", b.url, err)
		}

		initResp, err := sess.Initialize(ctx, &mcp.InitializeRequest{})
		if err != nil {
			sess.Close()
			return nil, fmt.Errorf("initializing tool session: %w", err)
		}
		log.Debugf("tool session established with %s %s",
			initResp.ServerInfo.Name, initResp.ServerInfo.Version)

		listResp, err := sess.ListTools(ctx, &mcp.ListToolsRequest{})
		if err != nil {
			sess.Close()
			return nil, fmt.Errorf("listing tools: %w", err)
		}

		catalog := make(map[string]tool.Schema, len(listResp.Tools))
		order := make([]string, 0, len(listResp.Tools))
		for _, t := range listResp.Tools {
			schema := convertToolSchema(t)
			catalog[schema.Name] = schema
			order = append(order, schema.Name)
		}
		log.Infof("discovered %d tools from %s", len(order), b.url)

		b.mu.Lock()
		b.sess = sess
		b.catalog = catalog
		b.order = order
		b.mu.Unlock()
		return nil, nil
	})
	return err
}

// Catalog returns the discovered tool schemas in server order.
func (b *Bridge) Catalog(ctx context.Context) ([]tool.Schema, error) {
	if err := b.ensureCatalog(ctx); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]tool.Schema, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.catalog[name])
	}
	return out, nil
}

// Call invokes one tool. Unknown tool names and schema violations fail fast
// locally, before any round trip. Transport failures map to internal errors;
// tool-level failures arrive decoded from the response envelope.
func (b *Bridge) Call(ctx context.Context, name string, args map[string]any) tool.Result {
	if err := b.ensureCatalog(ctx); err != nil {
		return tool.Fail(tool.Errorf(tool.CodeInternal, "tool catalog unavailable: %v", err))
	}

	b.mu.RLock()
	schema, known := b.catalog[name]
	sess := b.sess
	b.mu.RUnlock()

	// Close may have released the session after the catalog check above.
	if sess == nil {
		return tool.Fail(tool.Errorf(tool.CodeInternal, "tool session closed"))
	}
	if !known {
		return tool.Fail(tool.Errorf(tool.CodeValidation, "unknown tool %q", name))
	}
	if err := schema.Validate(args); err != nil {
		return tool.Fail(err)
	}

	req := &mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	resp, err := sess.CallTool(ctx, req)
	if err != nil {
		log.Errorf("tool call failed (name=%s, error=%v)", name, err)
		return tool.Fail(tool.Errorf(tool.CodeInternal, "calling tool %s: %v", name, err))
	}
	return decodeResult(resp)
}

// Close releases the protocol session, if one was established.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sess == nil {
		return nil
	}
	err := b.sess.Close()
	b.sess = nil
	b.catalog = nil
	b.order = nil
	return err
}

// decodeResult extracts the result envelope from the first text content item.
func decodeResult(resp *mcp.CallToolResult) tool.Result {
	for _, content := range resp.Content {
		textContent, ok := content.(mcp.TextContent)
		if !ok {
			continue
		}
		var res tool.Result
		if err := json.Unmarshal([]byte(textContent.Text), &res); err != nil {
			return tool.Fail(tool.Errorf(tool.CodeInternal, "undecodable tool response: %s", textContent.Text))
		}
		return res
	}
	return tool.Fail(tool.Errorf(tool.CodeInternal, "tool response carried no text content"))
}

// convertToolSchema folds a wire tool declaration into a catalog schema.
// The input schema arrives as a JSON-schema-shaped structure; only the
// object/properties/required subset the registry emits is interpreted.
func convertToolSchema(t mcp.Tool) tool.Schema {
	schema := tool.Schema{Name: t.Name, Description: t.Description}

	raw, err := json.Marshal(t.InputSchema)
	if err != nil {
		return schema
	}
	var parsed struct {
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return schema
	}

	required := make(map[string]bool, len(parsed.Required))
	for _, name := range parsed.Required {
		required[name] = true
	}

	names := make([]string, 0, len(parsed.Properties))
	for name := range parsed.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := parsed.Properties[name]
		pt := tool.ParamType(prop.Type)
		switch pt {
		case tool.TypeString, tool.TypeInteger, tool.TypeNumber:
		default:
			pt = tool.TypeString
		}
		schema.Params = append(schema.Params, tool.Param{
			Name:        name,
			Type:        pt,
			Required:    required[name],
			Description: prop.Description,
		})
	}
	return schema
}

// CLAUDE:SUMMARY Registers the domselect MCP tools: synthesize from HTML, pick from a URL, list pick history.
package picker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/domselect/kit"
)

// RegisterMCP registers the picker tools on an MCP server.
func (p *Picker) RegisterMCP(srv *mcp.Server) {
	p.registerSynthesizeTool(srv)
	p.registerPickURLTool(srv)
	p.registerHistoryTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// toolEndpoint wraps a tool endpoint with panic recovery and call logging.
func (p *Picker) toolEndpoint(name string, e kit.Endpoint) kit.Endpoint {
	return kit.Chain(p.logCalls(name), recoverPanics)(e)
}

func (p *Picker) logCalls(name string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if err != nil {
				p.logger.Warn("picker: tool failed", "tool", name, "error", err, "duration", time.Since(start))
			} else {
				p.logger.Debug("picker: tool", "tool", name, "duration", time.Since(start))
			}
			return resp, err
		}
	}
}

func recoverPanics(next kit.Endpoint) kit.Endpoint {
	return func(ctx context.Context, req any) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("picker: panic: %v", r)
			}
		}()
		return next(ctx, req)
	}
}

// decodeArgs unmarshals the raw tool arguments into a fresh T.
func decodeArgs[T any](req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var v T
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &v); err != nil {
			return nil, err
		}
	}
	return &kit.MCPDecodeResult{Request: &v}, nil
}

// --- synthesize ---

func (p *Picker) registerSynthesizeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domselect_synthesize",
		Description: "Synthesize a short, stable CSS locator for one element of an HTML document. The target selector must match exactly one element; use ' >>> ' to step into shadow roots.",
		InputSchema: inputSchema(map[string]any{
			"html":        map[string]any{"type": "string", "description": "HTML document; declarative shadow roots (<template shadowrootmode>) are attached"},
			"target":      map[string]any{"type": "string", "description": "CSS selector naming the element, e.g. 'form button' or 'my-app >>> .save'"},
			"page_url":    map[string]any{"type": "string", "description": "URL recorded with the pick"},
			"deep_shadow": map[string]any{"type": "boolean", "description": "Pierce open shadow roots in structural paths (default from config)"},
		}, []string{"html", "target"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*synthesizeRequest)
		return p.pickHTML(ctx, rr.HTML, rr.Target, rr.PageURL, rr.DeepShadow)
	}

	kit.RegisterMCPTool(srv, tool, p.toolEndpoint(tool.Name, endpoint), decodeArgs[synthesizeRequest])
}

// --- pick_url ---

func (p *Picker) registerPickURLTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domselect_pick_url",
		Description: "Load a web page (static fetch or headless Chrome) and synthesize a locator for the element named by target.",
		InputSchema: inputSchema(map[string]any{
			"url":           map[string]any{"type": "string", "description": "Page URL"},
			"target":        map[string]any{"type": "string", "description": "CSS selector naming the element"},
			"stealth_level": map[string]any{"type": "string", "enum": []any{"auto", "0", "1", "2"}, "description": "0 = HTTP, 1 = headless Chrome, 2 = headful Chrome, auto = HTTP then Chrome if needed"},
		}, []string{"url", "target"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*pickRequest)
		level, err := ParseLevel(rr.StealthLevel)
		if err != nil {
			return nil, err
		}
		return p.PickURL(ctx, rr.URL, rr.Target, level)
	}

	kit.RegisterMCPTool(srv, tool, p.toolEndpoint(tool.Name, endpoint), decodeArgs[pickRequest])
}

// --- history ---

type historyRequest struct {
	PageURL string `json:"page_url,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

func (p *Picker) registerHistoryTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domselect_history",
		Description: "List recorded picks, newest first, optionally for one page.",
		InputSchema: inputSchema(map[string]any{
			"page_url": map[string]any{"type": "string", "description": "Only picks made on this URL"},
			"limit":    map[string]any{"type": "integer", "description": "Max results (default 50)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*historyRequest)
		return p.History(ctx, rr.PageURL, rr.Limit)
	}

	kit.RegisterMCPTool(srv, tool, p.toolEndpoint(tool.Name, endpoint), decodeArgs[historyRequest])
}

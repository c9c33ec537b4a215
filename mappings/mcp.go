package mappings

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/mcmappings/kit"
	"github.com/hazyhaar/mcmappings/scheme"
)

// RegisterMCP registers the mapping tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerLookupTool(srv)
	s.registerInspectTool(srv)
	s.registerSchemesTool(srv)
}

func (s *Service) wrap(name string) kit.Middleware {
	return kit.Chain(kit.Logging(s.logger, name), kit.Recover())
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	sch := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sch["required"] = required
	}
	return sch
}

func schemeEnum() []any {
	var out []any
	for _, s := range scheme.All() {
		out = append(out, s.String())
	}
	return out
}

func requestProperties() map[string]any {
	return map[string]any{
		"class_path": map[string]any{"type": "string", "description": "Dotted class path, e.g. net.minecraft.client.Minecraft"},
		"version":    map[string]any{"type": "string", "description": "Game version, e.g. 1.20.1 (default from config)"},
		"scheme":     map[string]any{"type": "string", "enum": schemeEnum(), "description": "Naming scheme (default from config)"},
	}
}

// --- lookup ---

func (s *Service) registerLookupTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "mappings_lookup",
		Description: "Resolve a class's name under a naming scheme to its obfuscated name, with field and method mappings.",
		InputSchema: inputSchema(requestProperties(), []string{"class_path"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		return s.Lookup(ctx, *req.(*Request))
	}

	kit.RegisterMCPTool(srv, tool, s.wrap(tool.Name)(endpoint), kit.DecodeJSON[Request]())
}

// --- inspect ---

func (s *Service) registerInspectTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "mappings_inspect",
		Description: "Show the markers detected on a class page and Markdown renderings of its tables. For debugging extraction failures.",
		InputSchema: inputSchema(requestProperties(), []string{"class_path"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		return s.Inspect(ctx, *req.(*Request))
	}

	kit.RegisterMCPTool(srv, tool, s.wrap(tool.Name)(endpoint), kit.DecodeJSON[Request]())
}

// --- schemes ---

type schemesResponse struct {
	Schemes []string `json:"schemes"`
	Default string   `json:"default"`
	Version string   `json:"version"`
}

func (s *Service) registerSchemesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "mappings_schemes",
		Description: "List the supported naming schemes and the configured defaults.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		resp := schemesResponse{Default: s.cfg.Scheme.String(), Version: s.cfg.Version}
		for _, sc := range scheme.All() {
			resp.Schemes = append(resp.Schemes, sc.String())
		}
		return resp, nil
	}

	kit.RegisterMCPTool(srv, tool, s.wrap(tool.Name)(endpoint), kit.DecodeJSON[struct{}]())
}

// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes response schema lookups as MCP tools over stdio.
package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kolah/respec/loader"
	"github.com/kolah/respec/schema"
)

const (
	serverName    = "respec"
	serverVersion = "1.0.0"
)

const serverInstructions = `respec MCP server - looks up the schema documenting an API response and synthesizes example payloads from it.

Every tool takes a route (request path or path template), an HTTP method and a status code. The OpenAPI schema is loaded, resolved and validated once per session; a schema that fails to load makes every call fail with the same error.

Undocumented lookups return the documented alternatives (routes, methods or status codes) in the error text.`

// Server holds the state shared by the tool handlers.
type Server struct {
	loader *loader.Loader
	logger schema.Logger
	// redacted lists local directories hidden from error messages,
	// longest first.
	redacted []string
}

// New creates a Server backed by l.
func New(l *loader.Loader, logger schema.Logger) *Server {
	var dirs []string
	if dir := l.SourceDir(); dir != "" {
		dirs = append(dirs, dir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	return &Server{loader: l, logger: schema.OrNop(logger), redacted: redactedDirs(dirs...)}
}

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context, l *loader.Loader, logger schema.Logger) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: serverName, Version: serverVersion},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	New(l, logger).register(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "response_schema",
		Description: "Return the resolved JSON schema documenting the response to METHOD on ROUTE with STATUS. v3 responses are unwrapped through their application/json content. Recursive references are truncated with an x-recursive-ref-replaced marker.",
	}, s.handleResponseSchema)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "example",
		Description: "Synthesize an example payload for the response to METHOD on ROUTE with STATUS. Declared examples are used verbatim; other scalars get typed placeholders.",
	}, s.handleExample)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "routes",
		Description: "List every documented response as (path, method, status).",
	}, s.handleRoutes)
}

func redactedDirs(dirs ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range dirs {
		if !filepath.IsAbs(d) {
			continue
		}
		d = filepath.Clean(d)
		if d == string(filepath.Separator) || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// sanitizeError replaces local filesystem locations under the redacted
// directories with <path>. Other slash separated text, such as API routes,
// is kept.
func sanitizeError(err error, dirs []string) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, dir := range dirs {
		msg = redactDir(msg, dir)
	}
	return msg
}

// redactDir replaces every occurrence of dir, together with the path
// segments that follow it, when the match ends on a path boundary.
func redactDir(msg, dir string) string {
	var b strings.Builder
	for {
		i := strings.Index(msg, dir)
		if i < 0 {
			b.WriteString(msg)
			return b.String()
		}
		end := i + len(dir)
		if end < len(msg) && msg[end] != '/' && isPathChar(msg[end]) {
			b.WriteString(msg[:end])
			msg = msg[end:]
			continue
		}
		for end < len(msg) && (msg[end] == '/' || isPathChar(msg[end])) {
			end++
		}
		b.WriteString(msg[:i])
		b.WriteString("<path>")
		msg = msg[end:]
	}
}

func isPathChar(c byte) bool {
	return c == '.' || c == '_' || c == '-' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// errResult creates an MCP error result from an error.
func (s *Server) errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err, s.redacted)}},
	}
}

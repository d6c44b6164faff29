package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kolah/respec/example"
	"github.com/kolah/respec/indexer"
)

type lookupInput struct {
	Route  string `json:"route"  jsonschema:"Request path or path template, e.g. /api/items/42"`
	Method string `json:"method" jsonschema:"HTTP method: GET, POST, PUT, PATCH, DELETE, OPTIONS or HEAD"`
	Status int    `json:"status" jsonschema:"HTTP response status code, 100-505"`
}

type responseSchemaOutput struct {
	Route  string         `json:"route"`
	Method string         `json:"method"`
	Status int            `json:"status"`
	Schema map[string]any `json:"schema"`
}

func (s *Server) handleResponseSchema(ctx context.Context, _ *mcp.CallToolRequest, input lookupInput) (*mcp.CallToolResult, responseSchemaOutput, error) {
	fragment, err := s.loader.ResponseSchema(ctx, input.Route, input.Method, input.Status)
	if err != nil {
		return s.errResult(err), responseSchemaOutput{}, nil
	}
	return nil, responseSchemaOutput{
		Route:  input.Route,
		Method: input.Method,
		Status: input.Status,
		Schema: fragment,
	}, nil
}

type exampleOutput struct {
	Route   string `json:"route"`
	Method  string `json:"method"`
	Status  int    `json:"status"`
	Example any    `json:"example"`
}

func (s *Server) handleExample(ctx context.Context, _ *mcp.CallToolRequest, input lookupInput) (*mcp.CallToolResult, exampleOutput, error) {
	fragment, err := s.loader.ResponseSchema(ctx, input.Route, input.Method, input.Status)
	if err != nil {
		return s.errResult(err), exampleOutput{}, nil
	}
	value, err := example.New(s.logger).Synthesize(fragment)
	if err != nil {
		return s.errResult(err), exampleOutput{}, nil
	}
	return nil, exampleOutput{
		Route:   input.Route,
		Method:  input.Method,
		Status:  input.Status,
		Example: value,
	}, nil
}

type routesInput struct{}

type routesOutput struct {
	Count  int                `json:"count"`
	Routes []indexer.Endpoint `json:"routes,omitempty"`
}

func (s *Server) handleRoutes(ctx context.Context, _ *mcp.CallToolRequest, _ routesInput) (*mcp.CallToolResult, routesOutput, error) {
	endpoints, err := s.loader.Indexer().Routes(ctx)
	if err != nil {
		return s.errResult(err), routesOutput{}, nil
	}
	return nil, routesOutput{Count: len(endpoints), Routes: endpoints}, nil
}

// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Berkano tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/berkano/internal/blockservice"
	"github.com/starford/berkano/internal/models"
)

// Server wraps the MCP server with Berkano tools.
type Server struct {
	mcp *server.MCPServer
	svc *blockservice.Service
}

// New creates a new MCP server with all Berkano tools registered.
func New(svc *blockservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Berkano",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("render_block",
		mcp.WithDescription("Materialize a serialized block property value into its "+
			"render-ready model. The payload MUST follow the canonical block payload "+
			"format; read it first via the get_block_contract tool or the "+
			"berkano://block-format resource."),
		mcp.WithString("flavor", mcp.Description("Block flavor: list, grid, single or richtext (omit when dataType is given)")),
		mcp.WithString("dataType", mcp.Description("Alias of a stored data type supplying flavor and block configurations")),
		mcp.WithString("value", mcp.Required(), mcp.Description("The serialized block property value (JSON)")),
		mcp.WithString("blocks", mcp.Description("Explicit block configurations as a JSON array (overridden by dataType)")),
		mcp.WithString("culture", mcp.Description("Requested culture, e.g. en-US (empty for the default locale)")),
		mcp.WithString("segment", mcp.Description("Requested audience segment (empty for none)")),
	), s.renderBlock)

	s.mcp.AddTool(mcp.NewTool("list_content_types",
		mcp.WithDescription("List all content types known to the schema store."),
	), s.listContentTypes)

	s.mcp.AddTool(mcp.NewTool("get_content_type",
		mcp.WithDescription("Read one content type's schema by key or alias."),
		mcp.WithString("keyOrAlias", mcp.Required(), mcp.Description("Content type key (UUID) or alias")),
	), s.getContentType)

	s.mcp.AddTool(mcp.NewTool("list_data_types",
		mcp.WithDescription("List all data types (block editor configurations)."),
	), s.listDataTypes)

	s.mcp.AddTool(mcp.NewTool("get_block_contract",
		mcp.WithDescription("Returns the canonical block payload format contract. "+
			"Call this before building payloads for render_block."),
	), s.getBlockContract)

	// Resource: block payload format contract.
	s.mcp.AddResource(
		mcp.NewResource("berkano://block-format", "Block Payload Format Contract",
			mcp.WithResourceDescription("Canonical serialized block payload format accepted by render_block."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readBlockFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) renderBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	renderReq := blockservice.RenderRequest{Value: json.RawMessage(value)}
	if flavor, err := req.RequireString("flavor"); err == nil {
		renderReq.Flavor = flavor
	}
	if dataType, err := req.RequireString("dataType"); err == nil {
		renderReq.DataType = dataType
	}
	if culture, err := req.RequireString("culture"); err == nil {
		renderReq.Culture = culture
	}
	if segment, err := req.RequireString("segment"); err == nil {
		renderReq.Segment = segment
	}
	if rawBlocks, err := req.RequireString("blocks"); err == nil && rawBlocks != "" {
		var configs []models.BlockConfiguration
		if err := json.Unmarshal([]byte(rawBlocks), &configs); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid blocks: %v", err)), nil
		}
		renderReq.Blocks = configs
	}

	res, err := s.svc.Render(ctx, renderReq)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listContentTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	types, err := s.svc.ContentTypes(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(types, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getContentType(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyOrAlias, err := req.RequireString("keyOrAlias")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ct, err := s.svc.ContentType(ctx, keyOrAlias)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", keyOrAlias)), nil
	}
	out, _ := json.MarshalIndent(ct, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDataTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	types, err := s.svc.DataTypes(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(types, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBlockContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(BlockFormatContract), nil
}

func (s *Server) readBlockFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "berkano://block-format",
			MIMEType: "text/markdown",
			Text:     BlockFormatContract,
		},
	}, nil
}

// Package mcpadapter exposes catalog reads as MCP tools so assistants can
// browse the hierarchy and search documents.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/document-catalog/internal/core/domain"
	"github.com/kirillkom/document-catalog/internal/core/ports"
)

type Services struct {
	Cascade ports.CascadeResolver
	Search  ports.DocumentSearcher
	Stats   ports.StatsReader
}

type Server struct {
	services Services
	mcp      *server.MCPServer
}

func NewServer(services Services, version string) *Server {
	s := &Server{
		services: services,
		mcp:      server.NewMCPServer("document-catalog", version, server.WithToolCapabilities(false)),
	}
	s.mcp.AddTool(searchDocumentsTool(), s.searchDocuments)
	s.mcp.AddTool(listChildrenTool(), s.listChildren)
	s.mcp.AddTool(extensionStatsTool(), s.extensionStats)
	return s
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func searchDocumentsTool() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription("Search catalog documents by text, type, extension, hierarchy node, tag and date. Returns one page of results."),
		mcp.WithString("text", mcp.Description("Free text, matched against title, description, filename and tags. Ignored below three characters.")),
		mcp.WithArray("extensions", mcp.Description("File extensions such as pdf or xlsx."), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("types", mcp.Description("Document types such as spreadsheet or word."), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithNumber("process_type_id", mcp.Description("Process type id.")),
		mcp.WithNumber("general_process_id", mcp.Description("General process id.")),
		mcp.WithNumber("internal_process_id", mcp.Description("Internal process id.")),
		mcp.WithNumber("category_id", mcp.Description("Category id.")),
		mcp.WithString("confidentiality", mcp.Enum("public", "internal", "restricted")),
		mcp.WithString("tag", mcp.Description("Exact tag.")),
		mcp.WithString("date_from", mcp.Description("Inclusive lower bound on the document date, YYYY-MM-DD.")),
		mcp.WithString("date_to", mcp.Description("Inclusive upper bound on the document date, YYYY-MM-DD.")),
		mcp.WithString("sort_by", mcp.Enum("created_at", "title", "document_date", "valid_until", "file_size", "original_filename", "extension", "relevance")),
		mcp.WithString("sort_order", mcp.Enum("asc", "desc")),
		mcp.WithNumber("page", mcp.Description("Page number, from 1.")),
		mcp.WithNumber("page_size", mcp.Description("Results per page, at most 100.")),
	)
}

func listChildrenTool() mcp.Tool {
	return mcp.NewTool("list_children",
		mcp.WithDescription("List the active children of a hierarchy node. Without parent_type, lists the process types; with parent_type=standalone, lists internal processes without a general process."),
		mcp.WithString("parent_type", mcp.Description("process_type, general_process, internal_process or standalone.")),
		mcp.WithNumber("parent_id", mcp.Description("Id of the parent node.")),
	)
}

func extensionStatsTool() mcp.Tool {
	return mcp.NewTool("extension_stats",
		mcp.WithDescription("Count catalog documents per file extension, or per document type when by_type is true."),
		mcp.WithBoolean("by_type", mcp.Description("Group by document type instead of extension.")),
	)
}

type pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := domain.SearchQuery{
		Text:            req.GetString("text", ""),
		Extensions:      req.GetStringSlice("extensions", nil),
		DocumentTypes:   req.GetStringSlice("types", nil),
		Confidentiality: req.GetString("confidentiality", ""),
		Tag:             req.GetString("tag", ""),
		SortBy:          req.GetString("sort_by", ""),
		SortOrder:       req.GetString("sort_order", ""),
		Page:            req.GetInt("page", 0),
		PageSize:        req.GetInt("page_size", 0),
		Hierarchy: domain.HierarchySelection{
			ProcessTypeID:     optionalID(req, "process_type_id"),
			GeneralProcessID:  optionalID(req, "general_process_id"),
			InternalProcessID: optionalID(req, "internal_process_id"),
			CategoryID:        optionalID(req, "category_id"),
		},
	}
	if day, ok := domain.ParseDay(req.GetString("date_from", "")); ok {
		query.DateFrom = &day
	}
	if day, ok := domain.ParseDay(req.GetString("date_to", "")); ok {
		query.DateTo = &day
	}

	result, err := s.services.Search.Search(ctx, query)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{
		"items": result.Items,
		"pagination": pagination{
			CurrentPage: result.Page,
			LastPage:    result.LastPage,
			PerPage:     result.PageSize,
			Total:       result.Total,
		},
	})
}

func (s *Server) listChildren(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawType := strings.TrimSpace(req.GetString("parent_type", ""))

	var (
		refs []domain.NodeRef
		err  error
	)
	switch strings.ToLower(rawType) {
	case "", "root":
		refs, err = s.services.Cascade.Roots(ctx)
	case "standalone":
		refs, err = s.services.Cascade.Standalone(ctx)
	default:
		parentType, ok := domain.ParseNodeType(rawType)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown parent_type %q", rawType)), nil
		}
		parentID := optionalID(req, "parent_id")
		if parentID == nil {
			return mcp.NewToolResultError("parent_id is required with parent_type"), nil
		}
		refs, err = s.services.Cascade.Children(ctx, parentType, *parentID)
	}
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{"items": refs})
}

func (s *Server) extensionStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if req.GetBool("by_type", false) {
		counts, err := s.services.Stats.TypeCounts(ctx)
		if err != nil {
			return toolError(err)
		}
		return jsonResult(map[string]any{"items": counts})
	}
	counts, err := s.services.Stats.ExtensionCounts(ctx)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(map[string]any{"items": counts})
}

// optionalID reads a positive integer argument; anything else is absent.
func optionalID(req mcp.CallToolRequest, name string) *int64 {
	if _, ok := req.GetArguments()[name]; !ok {
		return nil
	}
	v := req.GetInt(name, 0)
	if v <= 0 {
		return nil
	}
	return domain.Int64(int64(v))
}

// toolError reports caller mistakes as tool results and everything else as
// protocol errors.
func toolError(err error) (*mcp.CallToolResult, error) {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrNodeNotFound),
		domain.IsKind(err, domain.ErrChainMismatch):
		return mcp.NewToolResultError(err.Error()), nil
	default:
		return nil, err
	}
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ipetrenko/enerdex/internal/assistant"
	"github.com/ipetrenko/enerdex/internal/dispatch"
	"github.com/ipetrenko/enerdex/internal/responder"
	"github.com/ipetrenko/enerdex/internal/retrieval"
	"github.com/ipetrenko/enerdex/internal/storage"
)

// MCPDeps holds dependencies for the MCP server. Assistant calls run through
// the coordinator like their HTTP counterparts.
type MCPDeps struct {
	Store       *storage.Store
	Assistant   *assistant.Assistant
	Coordinator *dispatch.Coordinator
}

// NewMCPServer creates an MCP server exposing the directory assistant as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"enerdex",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("enerdex — natural-language assistant over a global energy-producer directory."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask_directory",
			mcp.WithDescription("Ask a natural-language question answered from the stored producer data. May return a web search suggestion when the directory cannot answer."),
			mcp.WithString("question", mcp.Description("The question to answer"), mcp.Required()),
		),
		mcpAskDirectory(deps),
	)

	s.AddTool(
		mcp.NewTool("query_directory",
			mcp.WithDescription("Translate a natural-language question into a read-only SQL query over the producers table and execute it."),
			mcp.WithString("question", mcp.Description("The question to translate and run"), mcp.Required()),
		),
		mcpQueryDirectory(deps),
	)

	s.AddTool(
		mcp.NewTool("search_producers",
			mcp.WithDescription("Keyword search over producer names, products and categories."),
			mcp.WithString("query", mcp.Description("Free text to extract keywords from"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 5)")),
		),
		mcpSearchProducers(deps),
	)

	s.AddTool(
		mcp.NewTool("add_producer",
			mcp.WithDescription("Add a producer record to the directory."),
			mcp.WithString("name", mcp.Description("Unique producer name"), mcp.Required()),
			mcp.WithString("contact", mcp.Description("Contact details")),
			mcp.WithString("address", mcp.Description("Postal address")),
			mcp.WithString("products", mcp.Description("Products the producer offers")),
			mcp.WithString("category", mcp.Description("Energy category, e.g. Solar or Wind")),
		),
		mcpAddProducer(deps),
	)

	s.AddTool(
		mcp.NewTool("suggest_producer_fields",
			mcp.WithDescription("Infer an energy category and representative products for a producer from its name, contact and address. Useful before add_producer when those fields are unknown."),
			mcp.WithString("name", mcp.Description("Producer name"), mcp.Required()),
			mcp.WithString("contact", mcp.Description("Contact details, if known")),
			mcp.WithString("address", mcp.Description("Postal address, if known")),
		),
		mcpSuggestProducerFields(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"schema://producers",
			"Producers Schema",
			mcp.WithResourceDescription("Queryable schema of the producer directory as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceSchema(deps),
	)

	return s
}

func mcpAskDirectory(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		res, err := runUnit(ctx, deps.Coordinator, func(unitCtx context.Context) (any, error) {
			return deps.Assistant.Chat(unitCtx, question)
		})
		if err != nil {
			return mcpError(fmt.Sprintf("ask failed: %v", err)), nil
		}
		if res.Err != nil {
			return mcpError(fmt.Sprintf("ask failed: %v", res.Err)), nil
		}

		chat := res.Value.(assistant.ChatResult)
		if chat.Reply.Kind == responder.FallbackSuggested {
			return mcpText(fmt.Sprintf("%s\n\nSuggested web search: %s\n%s",
				chat.Reply.Text, chat.Reply.SearchQuery, chat.SearchURL)), nil
		}
		return mcpText(chat.Reply.Text), nil
	}
}

func mcpQueryDirectory(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		res, err := runUnit(ctx, deps.Coordinator, func(unitCtx context.Context) (any, error) {
			return deps.Assistant.Query(unitCtx, question)
		})
		if err != nil {
			return mcpError(fmt.Sprintf("query failed: %v", err)), nil
		}
		if res.Err != nil {
			return mcpError(fmt.Sprintf("query failed: %v", res.Err)), nil
		}

		result := res.Value.(assistant.QueryResult)

		var sb strings.Builder
		fmt.Fprintf(&sb, "SQL: %s\n\n", result.Candidate.SQL)
		sb.WriteString(strings.Join(result.Columns, "\t"))
		sb.WriteString("\n")
		for _, row := range result.Rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
		return mcpText(sb.String()), nil
	}
}

func mcpSearchProducers(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", retrieval.DefaultLimit)
		if limit <= 0 {
			limit = retrieval.DefaultLimit
		}
		if limit > 50 {
			limit = 50
		}

		rctx := retrieval.NewRetriever(deps.Store, limit).Retrieve(ctx, query)
		return mcpText(rctx.Render()), nil
	}
}

func mcpAddProducer(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}

		exists, err := deps.Store.ProducerExists(ctx, name)
		if err != nil {
			return mcpError(fmt.Sprintf("checking producer: %v", err)), nil
		}
		if exists {
			return mcpError(fmt.Sprintf("a producer named %q already exists", name)), nil
		}

		id, err := deps.Store.CreateProducer(ctx, storage.Producer{
			Name:     name,
			Contact:  req.GetString("contact", ""),
			Address:  req.GetString("address", ""),
			Products: req.GetString("products", ""),
			Category: req.GetString("category", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("creating producer: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Added producer %q (id %d)", name, id)), nil
	}
}

func mcpSuggestProducerFields(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}

		res, err := runUnit(ctx, deps.Coordinator, func(unitCtx context.Context) (any, error) {
			return deps.Assistant.SuggestFields(unitCtx, storage.Producer{
				Name:    name,
				Contact: req.GetString("contact", ""),
				Address: req.GetString("address", ""),
			})
		})
		if err != nil {
			return mcpError(fmt.Sprintf("suggest failed: %v", err)), nil
		}
		if res.Err != nil {
			return mcpError(fmt.Sprintf("suggest failed: %v", res.Err)), nil
		}

		s := res.Value.(assistant.FieldSuggestion)
		if s.Empty() {
			return mcpText("No suggestion available for this producer."), nil
		}
		return mcpText(fmt.Sprintf("Category: %s\nProducts: %s", s.Category, s.Products)), nil
	}
}

func mcpResourceSchema(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		schema := deps.Assistant.Schema()

		type columnDoc struct {
			Name string `json:"name"`
			Role string `json:"role"`
		}
		doc := struct {
			Table       string      `json:"table"`
			Columns     []columnDoc `json:"columns"`
			Description string      `json:"description"`
		}{
			Table:       schema.Table,
			Description: schema.Description,
		}
		for _, c := range schema.Columns {
			doc.Columns = append(doc.Columns, columnDoc{Name: c.Name, Role: c.Role})
		}

		b, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshalling schema: %w", err)
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

func mcpError(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

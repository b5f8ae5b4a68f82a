// Package mcp provides a Model Context Protocol server for Akadex.
//
// It exposes the document pipelines (ask, ingest, delete, stats) as MCP
// tools, and store statistics plus the ingested document list as MCP
// resources, over the stdio transport.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/akadex/akadex/internal/ingest"
	"github.com/akadex/akadex/internal/query"
	"github.com/akadex/akadex/internal/store"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store    store.FactStore
	Pipeline *ingest.Pipeline
	Router   *query.Router
	Version  string
}

// dbMu serializes all MCP tool calls that touch the database.
// The mcp-go library dispatches handlers concurrently via goroutines.
// SQLite (even with WAL) supports only one writer at a time, and a query
// racing an ingest could see a document half written. A global mutex keeps
// the ordering: ingests complete before asks see their chunks.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all Akadex tools and
// resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"Akadex",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerAskTool(s, cfg.Router)
	registerIngestTool(s, cfg.Pipeline)
	registerDeleteTool(s, cfg.Store)
	registerStatsTool(s, cfg.Store)

	registerStatsResource(s, cfg.Store)
	if sqlStore, ok := cfg.Store.(*store.SQLiteStore); ok {
		registerDocumentsResource(s, sqlStore)
	}

	return s
}

// --- Tools ---

func registerAskTool(s *server.MCPServer, router *query.Router) {
	tool := mcp.NewTool("akadex_ask",
		mcp.WithDescription("Answer a structured question about a student's ingested KRS schedules and KHS transcripts. Returns a Markdown answer with citations."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("owner_id",
			mcp.Required(),
			mcp.Description("Owner whose documents are queried"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question, e.g. 'jadwal hari senin' or 'rekap nilai semester 2'"),
		),
		mcp.WithString("doc_ids",
			mcp.Description("Comma-separated document IDs to scope the answer to. Empty = all of the owner's documents."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		ownerID, err := req.RequireString("owner_id")
		if err != nil {
			return mcp.NewToolResultError("owner_id is required"), nil
		}
		q, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		var docIDs []string
		if raw, err := req.RequireString("doc_ids"); err == nil && raw != "" {
			for _, id := range strings.Split(raw, ",") {
				if id = strings.TrimSpace(id); id != "" {
					docIDs = append(docIDs, id)
				}
			}
		}

		result := router.Run(ctx, query.Request{OwnerID: ownerID, Query: q, DocIDs: docIDs})
		data, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerIngestTool(s *server.MCPServer, pipeline *ingest.Pipeline) {
	tool := mcp.NewTool("akadex_ingest",
		mcp.WithDescription("Ingest a KRS or KHS document file for an owner. Re-ingesting the same doc_id replaces its chunks."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("owner_id",
			mcp.Required(),
			mcp.Description("Owner the document belongs to"),
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the document (pdf, csv, xlsx, md, txt)"),
		),
		mcp.WithString("doc_id",
			mcp.Description("Stable document ID. Reuse it to replace a previously ingested version; empty generates a new one."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		ownerID, err := req.RequireString("owner_id")
		if err != nil {
			return mcp.NewToolResultError("owner_id is required"), nil
		}
		path, err := req.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError("path is required"), nil
		}

		docID := ""
		if id, err := req.RequireString("doc_id"); err == nil {
			docID = strings.TrimSpace(id)
		}
		if docID == "" {
			docID = uuid.NewString()
		}

		ext := ingest.FindExtractor(ingest.DefaultExtractors(), path)
		if ext == nil {
			return mcp.NewToolResultError(fmt.Sprintf("unsupported file type: %s", path)), nil
		}
		doc, err := ext.Extract(ctx, path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("extract error: %v", err)), nil
		}

		result, err := pipeline.Run(ctx, ownerID, docID, doc)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("ingest error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerDeleteTool(s *server.MCPServer, st store.FactStore) {
	tool := mcp.NewTool("akadex_delete",
		mcp.WithDescription("Delete an owner's ingested chunks, optionally scoped to one document. Verifies the deletion left nothing behind."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("owner_id",
			mcp.Required(),
			mcp.Description("Owner whose chunks are deleted"),
		),
		mcp.WithString("doc_id",
			mcp.Description("Limit deletion to one document. Empty deletes everything the owner ingested."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		ownerID, err := req.RequireString("owner_id")
		if err != nil {
			return mcp.NewToolResultError("owner_id is required"), nil
		}
		filter := store.Filter{"user_id": ownerID}
		if docID, err := req.RequireString("doc_id"); err == nil && docID != "" {
			filter["doc_id"] = docID
		}

		result, err := store.DeleteStrict(ctx, st, filter, 0, 0)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerStatsTool(s *server.MCPServer, st store.FactStore) {
	tool := mcp.NewTool("akadex_stats",
		mcp.WithDescription("Get Akadex store statistics: chunk, owner, and document counts plus database size."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		stats, err := st.Stats(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stats error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(stats, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

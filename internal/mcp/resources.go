package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/akadex/akadex/internal/store"
)

func registerStatsResource(s *server.MCPServer, st store.FactStore) {
	resource := mcp.NewResource(
		"akadex://stats",
		"Store Statistics",
		mcp.WithResourceDescription("Chunk, owner, and document counts plus database size."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		stats, err := st.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting stats: %w", err)
		}

		data, _ := json.MarshalIndent(stats, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func registerDocumentsResource(s *server.MCPServer, st *store.SQLiteStore) {
	resource := mcp.NewResource(
		"akadex://documents",
		"Ingested Documents",
		mcp.WithResourceDescription("Ingested documents per owner with chunk counts and last ingest time."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		type docInfo struct {
			OwnerID    string `json:"owner_id"`
			DocID      string `json:"doc_id"`
			DocType    string `json:"doc_type"`
			Source     string `json:"source"`
			ChunkCount int    `json:"chunk_count"`
			IngestedAt string `json:"ingested_at"`
		}

		rows, err := st.GetDB().QueryContext(ctx,
			`SELECT user_id, doc_id, MIN(doc_type), MIN(source), COUNT(*), MAX(created_at)
			 FROM chunks
			 GROUP BY user_id, doc_id
			 ORDER BY MAX(created_at) DESC
			 LIMIT 500`,
		)
		if err != nil {
			return nil, fmt.Errorf("querying documents resource: %w", err)
		}
		defer rows.Close()

		docs := make([]docInfo, 0, 64)
		for rows.Next() {
			var item docInfo
			if err := rows.Scan(&item.OwnerID, &item.DocID, &item.DocType, &item.Source, &item.ChunkCount, &item.IngestedAt); err != nil {
				return nil, fmt.Errorf("scanning documents resource row: %w", err)
			}
			docs = append(docs, item)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterating documents resource rows: %w", err)
		}

		payload := map[string]interface{}{
			"documents": docs,
			"count":     len(docs),
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}

package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/akadex/akadex/internal/extract"
	"github.com/akadex/akadex/internal/norm"
)

// PageSource yields per-page tables and text for paginated binary formats.
// PDF readers plug in here; the pipeline itself stays format-agnostic.
type PageSource interface {
	Pages(ctx context.Context) ([]extract.TablePage, error)
}

// TextRecoverer optionally backfills raw text for pages the primary source
// rendered empty, the way a second PDF engine or OCR pass would.
type TextRecoverer interface {
	PageText(ctx context.Context, page int) (string, error)
}

// FromPageSource builds a Document from a paginated source. Pages whose
// primary extraction fails contribute empty content but never abort the
// document; when a recoverer is supplied, it is consulted for pages that
// came back without raw text.
func FromPageSource(ctx context.Context, src PageSource, rec TextRecoverer, path string) (*Document, error) {
	tablePages, err := src.Pages(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading pages from %s: %w", path, err)
	}

	var pages []PageContent
	var textParts []string
	for _, tp := range tablePages {
		pc := PageContent{Page: tp.Page, RawText: norm.Text(tp.Text)}
		var rough []string
		for _, table := range tp.Tables {
			for _, row := range table {
				if txt := norm.RowToText(row); txt != "" {
					rough = append(rough, txt)
				}
			}
		}
		pc.RoughTableText = strings.Join(rough, "\n")
		pages = append(pages, pc)
		if pc.RawText != "" {
			textParts = append(textParts, pc.RawText)
		}
	}

	if rec != nil {
		for i := range pages {
			if pages[i].RawText != "" {
				continue
			}
			txt, rerr := rec.PageText(ctx, pages[i].Page)
			if rerr != nil {
				fmt.Fprintf(os.Stderr, "warning: text recovery for page %d failed: %v\n", pages[i].Page, rerr)
				continue
			}
			if txt = norm.Text(txt); txt != "" {
				pages[i].RawText = txt
				tablePages[i].Text = txt
				textParts = append(textParts, txt)
			}
		}
	}

	doc := &Document{
		Path:     path,
		FileType: "pdf",
		Title:    titleFromPath(path),
		Pages:    pages,
		Tables:   tablePages,
		Text:     strings.TrimSpace(strings.Join(textParts, "\n")),
	}
	if doc.Empty() {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

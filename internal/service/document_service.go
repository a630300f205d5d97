package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"larkmd/internal/domain"
	"larkmd/internal/markdown"
	"larkmd/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Document service: read / write / append / clear on one doc
// ─────────────────────────────────────────────────────────────

// RunRecorder persists sync history. A nil recorder disables history.
type RunRecorder interface {
	Record(run *storage.SyncRun) error
	List(docToken string, limit int) ([]storage.SyncRun, error)
}

// DocumentService converts between Markdown and document block trees.
type DocumentService struct {
	api   DocAPI
	runs  RunRecorder
	sleep func(time.Duration)
}

type DocumentOption func(*DocumentService)

// WithSleep replaces the pacing function used between API batches.
func WithSleep(f func(time.Duration)) DocumentOption {
	return func(s *DocumentService) { s.sleep = f }
}

func NewDocumentService(api DocAPI, runs RunRecorder, opts ...DocumentOption) *DocumentService {
	s := &DocumentService{api: api, runs: runs, sleep: time.Sleep}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadResult is the outcome of exporting a document to Markdown.
type ReadResult struct {
	DocURL     string `json:"docUrl"`
	Title      string `json:"title"`
	BlockCount int    `json:"blockCount"`
	Markdown   string `json:"markdown"`
	RawContent string `json:"rawContent"`
}

// WriteResult is the outcome of a write or append.
type WriteResult struct {
	DocURL       string `json:"docUrl"`
	Action       string `json:"action"`
	BlocksAdded  int    `json:"blocksAdded"`
	TotalBatches int    `json:"totalBatches"`
	Status       string `json:"status"`
}

// ClearResult is the outcome of emptying a document.
type ClearResult struct {
	DocURL        string `json:"docUrl"`
	Action        string `json:"action"`
	BlocksDeleted int    `json:"blocksDeleted"`
	Status        string `json:"status"`
}

// Read fetches the document and renders its block tree as Markdown.
func (s *DocumentService) Read(ctx context.Context, ref domain.DocRef) (*ReadResult, error) {
	raw, err := s.api.RawContent(ctx, ref.Token)
	if err != nil {
		return nil, fmt.Errorf("fetch raw content: %w", err)
	}

	blocks, err := s.api.ListBlocks(ctx, ref.Token)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}

	title := ""
	for _, b := range blocks {
		if b.BlockType == domain.BlockTypePage {
			title = strings.TrimSpace(b.PlainText())
			break
		}
	}

	return &ReadResult{
		DocURL:     ref.URL,
		Title:      title,
		BlockCount: len(blocks),
		Markdown:   markdown.RenderDocument(domain.NewTree(blocks)),
		RawContent: raw,
	}, nil
}

// Write replaces the document's title from the first heading and
// appends the parsed content. Clear first for full replacement.
func (s *DocumentService) Write(ctx context.Context, ref domain.DocRef, content string) (*WriteResult, error) {
	return s.push(ctx, ref, content, "write")
}

// Append adds the parsed content to the end of the document, keeping
// the existing title.
func (s *DocumentService) Append(ctx context.Context, ref domain.DocRef, content string) (*WriteResult, error) {
	return s.push(ctx, ref, content, "append")
}

func (s *DocumentService) push(ctx context.Context, ref domain.DocRef, content, action string) (*WriteResult, error) {
	started := time.Now()

	mode := markdown.TitleAsHeading
	if action == "write" {
		mode = markdown.TitleReplace
	}
	doc := markdown.Parse(content, mode)
	if len(doc.Drafts) == 0 && !doc.HasTitle {
		return nil, fmt.Errorf("nothing to %s: content is empty", action)
	}

	if action == "write" && doc.HasTitle {
		if err := s.api.UpdateTextElements(ctx, ref.Token, ref.Token, domain.PlainElements(doc.Title)); err != nil {
			return nil, fmt.Errorf("set document title: %w", err)
		}
	}

	up := newUploader(s.api, ref.Token, s.sleep)
	var pushErr error
	for _, d := range doc.Drafts {
		if pushErr = up.Add(ctx, d); pushErr != nil {
			break
		}
	}
	if pushErr == nil {
		pushErr = up.Flush(ctx)
	}

	result := &WriteResult{
		DocURL:       ref.URL,
		Action:       action,
		BlocksAdded:  up.Created(),
		TotalBatches: up.Batches(),
		Status:       "success",
	}
	if pushErr != nil {
		result.Status = "error"
	}
	recordRun(s.runs, ref.Token, action, result.BlocksAdded, result.TotalBatches, result.Status, pushErr, started)
	if pushErr != nil {
		return result, pushErr
	}
	return result, nil
}

// Clear deletes every child of the page block and blanks the title.
func (s *DocumentService) Clear(ctx context.Context, ref domain.DocRef) (*ClearResult, error) {
	started := time.Now()

	page, err := s.api.GetBlock(ctx, ref.Token, ref.Token)
	if err != nil {
		return nil, fmt.Errorf("fetch page block: %w", err)
	}
	total := len(page.Children)

	if err := s.api.UpdateTextElements(ctx, ref.Token, ref.Token, domain.PlainElements(" ")); err != nil {
		log.Printf("reset title: %v", err)
	}

	if total > 0 {
		if err := s.api.DeleteChildRange(ctx, ref.Token, ref.Token, 0, total); err != nil {
			// Children shift down after each delete, so the fallback
			// keeps removing from index zero.
			remaining := total
			for remaining > 0 {
				batch := remaining
				if batch > maxBatchSize {
					batch = maxBatchSize
				}
				if derr := s.api.DeleteChildRange(ctx, ref.Token, ref.Token, 0, batch); derr != nil {
					log.Printf("delete %d blocks: %v", batch, derr)
				}
				remaining -= batch
				s.sleep(childPause)
			}
		}
	}

	recordRun(s.runs, ref.Token, "clear", total, 0, "success", nil, started)
	return &ClearResult{
		DocURL:        ref.URL,
		Action:        "clear",
		BlocksDeleted: total,
		Status:        "success",
	}, nil
}

// History returns the newest sync runs for a document, or across all
// documents when docToken is empty.
func (s *DocumentService) History(docToken string, limit int) ([]storage.SyncRun, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.List(docToken, limit)
}

// recordRun persists one history row. Failures are logged, not fatal.
func recordRun(runs RunRecorder, docToken, action string, blocks, batches int, status string, runErr error, started time.Time) {
	if runs == nil {
		return
	}
	run := &storage.SyncRun{
		DocToken:   docToken,
		Action:     action,
		Blocks:     blocks,
		Batches:    batches,
		Status:     status,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := runs.Record(run); err != nil {
		log.Printf("record %s run: %v", action, err)
	}
}

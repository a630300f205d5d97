package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"larkmd/internal/domain"
	"larkmd/internal/feishu"
	"larkmd/internal/markdown"
)

// DocAPI is the slice of the Feishu client the services consume.
type DocAPI interface {
	RawContent(ctx context.Context, docToken string) (string, error)
	ListBlocks(ctx context.Context, docToken string) ([]*domain.Block, error)
	GetBlock(ctx context.Context, docToken, blockID string) (*domain.Block, error)
	UpdateTextElements(ctx context.Context, docToken, blockID string, els []domain.TextElement) error
	CreateChildren(ctx context.Context, docToken, parentID string, children []*domain.Block, index int) (*feishu.ChildrenCreated, error)
	DeleteChildRange(ctx context.Context, docToken, parentID string, start, end int) error
}

const (
	// maxBatchSize is the API limit on blocks per children-create call.
	maxBatchSize = 50
	// maxTableDataRows caps each created sub-table at 8 data rows plus
	// the header row.
	maxTableDataRows = 8
	// cellFillWorkers bounds concurrent cell-fill requests per table.
	cellFillWorkers = 5

	calloutBackground = 15

	batchPause = 500 * time.Millisecond
	childPause = 300 * time.Millisecond
)

// uploader streams drafts into a document. Plain blocks buffer into
// batches; quotes and tables need their own parent-child calls, so they
// flush the buffer first to preserve document order.
type uploader struct {
	api      DocAPI
	docToken string
	parentID string
	sleep    func(time.Duration)

	pending []*domain.Block
	created int
	batches int
}

func newUploader(api DocAPI, docToken string, sleep func(time.Duration)) *uploader {
	if sleep == nil {
		sleep = time.Sleep
	}
	// The page block shares the document token.
	return &uploader{api: api, docToken: docToken, parentID: docToken, sleep: sleep}
}

// Add queues or uploads one draft.
func (u *uploader) Add(ctx context.Context, d domain.Draft) error {
	switch d.Kind {
	case domain.DraftQuote:
		return u.createQuote(ctx, d.Quote)
	case domain.DraftTable:
		return u.createTable(ctx, d.Table)
	default:
		u.pending = append(u.pending, d.Block)
		return nil
	}
}

// Flush uploads the buffered blocks in batches of maxBatchSize.
func (u *uploader) Flush(ctx context.Context) error {
	for len(u.pending) > 0 {
		n := len(u.pending)
		if n > maxBatchSize {
			n = maxBatchSize
		}
		batch := u.pending[:n]
		u.pending = u.pending[n:]
		if _, err := u.api.CreateChildren(ctx, u.docToken, u.parentID, batch, -1); err != nil {
			return fmt.Errorf("write blocks: %w", err)
		}
		u.created += n
		u.batches++
		u.sleep(batchPause)
	}
	return nil
}

// Created reports top-level blocks created so far: batched blocks,
// callout containers, and table skeletons. Cell and callout text
// children are not counted.
func (u *uploader) Created() int { return u.created }

// Batches reports how many buffered batches were flushed.
func (u *uploader) Batches() int { return u.batches }

// createQuote uploads a quote as a callout container, then its text as
// the container's first child.
func (u *uploader) createQuote(ctx context.Context, text string) error {
	if err := u.Flush(ctx); err != nil {
		return err
	}

	container := domain.NewCalloutBlock(calloutBackground)
	created, err := u.api.CreateChildren(ctx, u.docToken, u.parentID, []*domain.Block{container}, -1)
	if err != nil {
		return fmt.Errorf("create callout: %w", err)
	}
	u.created++

	containerID := ""
	if len(created.Children) > 0 {
		containerID = created.Children[0].BlockID
	}
	if containerID == "" {
		log.Printf("callout created without a block id, quote text dropped")
		u.sleep(childPause)
		return nil
	}

	body := domain.NewTextBlock(markdown.ParseInline(text))
	if _, err := u.api.CreateChildren(ctx, u.docToken, containerID, []*domain.Block{body}, 0); err != nil {
		return fmt.Errorf("fill callout: %w", err)
	}
	u.sleep(childPause)
	return nil
}

// createTable uploads a table draft as a run of native sub-tables, each
// carrying the header plus up to maxTableDataRows data rows. A rejected
// skeleton degrades the rest of the table to a Markdown code block; a
// header-only draft has no data rows and uploads nothing.
func (u *uploader) createTable(ctx context.Context, t *domain.TableDraft) error {
	if err := u.Flush(ctx); err != nil {
		return err
	}
	for start := 0; start < len(t.Rows); start += maxTableDataRows {
		end := start + maxTableDataRows
		if end > len(t.Rows) {
			end = len(t.Rows)
		}
		if err := u.createTableChunk(ctx, t, t.Rows[start:end]); err != nil {
			var apiErr *feishu.APIError
			if errors.As(err, &apiErr) {
				log.Printf("table create failed, falling back to a code block: %v", apiErr)
				raw := domain.PlainElements(t.Raw)
				u.pending = append(u.pending, domain.NewCodeBlock(raw, markdown.LanguageCode("markdown")))
				return nil
			}
			return err
		}
	}
	return nil
}

func (u *uploader) createTableChunk(ctx context.Context, t *domain.TableDraft, rows [][]string) error {
	cols := len(t.Header)
	skeleton := domain.NewTableBlock(1+len(rows), cols, t.ColumnWidths)
	created, err := u.api.CreateChildren(ctx, u.docToken, u.parentID, []*domain.Block{skeleton}, -1)
	if err != nil {
		return fmt.Errorf("create table %dx%d: %w", 1+len(rows), cols, err)
	}
	u.created++

	var cellIDs []string
	if len(created.Children) > 0 && created.Children[0].Table != nil {
		cellIDs = created.Children[0].Table.Cells
	}
	if len(cellIDs) > 0 {
		u.fillCells(ctx, cellIDs, t.Header, rows)
	}
	u.sleep(batchPause)
	return nil
}

type cellFill struct {
	cellID string
	text   string
	header bool
}

// fillCells writes cell text concurrently. Header cells stay plain,
// data cells get inline styling, empty cells are left alone. Individual
// failures leave a blank cell rather than failing the table.
func (u *uploader) fillCells(ctx context.Context, cellIDs []string, header []string, rows [][]string) {
	all := append([][]string{header}, rows...)
	cols := len(header)

	var tasks []cellFill
	for ri, row := range all {
		for ci := 0; ci < cols; ci++ {
			idx := ri*cols + ci
			if idx >= len(cellIDs) {
				break
			}
			text := ""
			if ci < len(row) {
				text = row[ci]
			}
			if text == "" {
				continue
			}
			tasks = append(tasks, cellFill{cellID: cellIDs[idx], text: text, header: ri == 0})
		}
	}
	if len(tasks) == 0 {
		return
	}

	workers := cellFillWorkers
	if len(tasks) < workers {
		workers = len(tasks)
	}

	jobs := make(chan cellFill)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				els := markdown.ParseInline(job.text)
				if job.header {
					els = domain.PlainElements(job.text)
				}
				cell := domain.NewTextBlock(els)
				if _, err := u.api.CreateChildren(ctx, u.docToken, job.cellID, []*domain.Block{cell}, 0); err != nil {
					log.Printf("fill table cell %s: %v", job.cellID, err)
				}
			}
		}()
	}
	for _, task := range tasks {
		jobs <- task
	}
	close(jobs)
	wg.Wait()
}

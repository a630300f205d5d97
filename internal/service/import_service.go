package service

import (
	"context"
	"fmt"
	"time"

	"larkmd/internal/dbclient"
	"larkmd/internal/domain"
	"larkmd/internal/markdown"
)

// ─────────────────────────────────────────────────────────────
// Import service: database query results into a document table
// ─────────────────────────────────────────────────────────────

// ImportRequest describes one query-to-table import.
type ImportRequest struct {
	Ref    domain.DocRef
	Driver string
	DSN    string
	Query  string
	Limit  int
	Title  string // optional heading above the table
}

// ImportResult is the outcome of an import.
type ImportResult struct {
	DocURL      string `json:"docUrl"`
	Action      string `json:"action"`
	Columns     int    `json:"columns"`
	Rows        int    `json:"rows"`
	Truncated   bool   `json:"truncated,omitempty"`
	BlocksAdded int    `json:"blocksAdded"`
	Status      string `json:"status"`
}

// ImportService runs a read query against an external database and
// appends the result set to a document as a table.
type ImportService struct {
	api     DocAPI
	runs    RunRecorder
	sleep   func(time.Duration)
	connect func(driver, dsn string) (dbclient.Connector, error)
}

type ImportOption func(*ImportService)

// WithImportSleep replaces the pacing function used between batches.
func WithImportSleep(f func(time.Duration)) ImportOption {
	return func(s *ImportService) { s.sleep = f }
}

// WithConnector replaces the database connector factory.
func WithConnector(f func(driver, dsn string) (dbclient.Connector, error)) ImportOption {
	return func(s *ImportService) { s.connect = f }
}

func NewImportService(api DocAPI, runs RunRecorder, opts ...ImportOption) *ImportService {
	s := &ImportService{api: api, runs: runs, sleep: time.Sleep, connect: dbclient.New}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import executes the query and appends the rows as a pipe table. An
// empty result set is an error so the document is left untouched.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	started := time.Now()

	conn, err := s.connect(req.Driver, req.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", req.Driver, err)
	}
	defer conn.Close()

	rs, err := conn.Query(ctx, req.Query, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("run import query: %w", err)
	}
	if len(rs.Rows) == 0 {
		return nil, fmt.Errorf("import query returned no rows")
	}

	drafts := make([]domain.Draft, 0, 2)
	if req.Title != "" {
		drafts = append(drafts, domain.BlockDraft(domain.NewHeadingBlock(2, req.Title)))
	}
	drafts = append(drafts, markdown.NewTableDraft(rs.Columns, rs.Rows))

	up := newUploader(s.api, req.Ref.Token, s.sleep)
	var pushErr error
	for _, d := range drafts {
		if pushErr = up.Add(ctx, d); pushErr != nil {
			break
		}
	}
	if pushErr == nil {
		pushErr = up.Flush(ctx)
	}

	result := &ImportResult{
		DocURL:      req.Ref.URL,
		Action:      "import",
		Columns:     len(rs.Columns),
		Rows:        len(rs.Rows),
		Truncated:   rs.Truncated,
		BlocksAdded: up.Created(),
		Status:      "success",
	}
	if pushErr != nil {
		result.Status = "error"
	}
	recordRun(s.runs, req.Ref.Token, "import", result.BlocksAdded, up.Batches(), result.Status, pushErr, started)
	if pushErr != nil {
		return result, pushErr
	}
	return result, nil
}

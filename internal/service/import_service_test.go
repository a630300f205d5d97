package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"larkmd/internal/dbclient"
	"larkmd/internal/domain"
	"larkmd/internal/service"
)

// ─────────────────────────────────────────────────────────────
// ImportService tests
// ─────────────────────────────────────────────────────────────

type fakeConnector struct {
	rs       *dbclient.ResultSet
	queryErr error

	queries []string
	limits  []int
	closed  bool
}

func (f *fakeConnector) TestConnection(ctx context.Context) error { return nil }

func (f *fakeConnector) Query(ctx context.Context, query string, limit int) (*dbclient.ResultSet, error) {
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, limit)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rs, nil
}

func (f *fakeConnector) Close() error {
	f.closed = true
	return nil
}

func importSvc(api *fakeAPI, runs *fakeRuns, conn *fakeConnector) *service.ImportService {
	// A nil *fakeRuns must become a nil RunRecorder interface, not a
	// typed nil, so the service's nil check still disables history.
	var rec service.RunRecorder
	if runs != nil {
		rec = runs
	}
	return service.NewImportService(api, rec,
		service.WithImportSleep(func(_ time.Duration) {}),
		service.WithConnector(func(driver, dsn string) (dbclient.Connector, error) {
			return conn, nil
		}),
	)
}

func TestImportService_AppendsQueryTable(t *testing.T) {
	api := &fakeAPI{}
	runs := &fakeRuns{}
	conn := &fakeConnector{rs: &dbclient.ResultSet{
		Columns: []string{"id", "name"},
		Rows:    [][]string{{"1", "ada"}, {"2", "grace"}},
	}}
	svc := importSvc(api, runs, conn)

	res, err := svc.Import(context.Background(), service.ImportRequest{
		Ref:    testRef(),
		Driver: "sqlite",
		DSN:    "file:test.db",
		Query:  "SELECT id, name FROM users",
		Limit:  10,
		Title:  "Users",
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if len(conn.queries) != 1 || conn.queries[0] != "SELECT id, name FROM users" {
		t.Errorf("unexpected queries: %v", conn.queries)
	}
	if conn.limits[0] != 10 {
		t.Errorf("expected limit 10, got %d", conn.limits[0])
	}
	if !conn.closed {
		t.Error("expected the connector to be closed")
	}

	calls := api.docCreates(testRef().Token)
	if len(calls) != 2 {
		t.Fatalf("expected a heading batch and a table skeleton, got %d calls", len(calls))
	}
	if calls[0].children[0].BlockType != domain.BlockTypeHeading2 {
		t.Errorf("expected a level-2 heading first, got type %d", calls[0].children[0].BlockType)
	}
	prop := calls[1].children[0].Table.Property
	if prop.RowSize != 3 || prop.ColumnSize != 2 {
		t.Errorf("expected a 3x2 table, got %dx%d", prop.RowSize, prop.ColumnSize)
	}

	fills := api.cellFills()
	if len(fills) != 6 {
		t.Fatalf("expected 6 cell fills, got %d", len(fills))
	}

	if res.Action != "import" || res.Columns != 2 || res.Rows != 2 || res.BlocksAdded != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Status != "success" {
		t.Errorf("expected success, got %q", res.Status)
	}

	if len(runs.runs) != 1 || runs.runs[0].Action != "import" {
		t.Errorf("unexpected run records: %+v", runs.runs)
	}
}

func TestImportService_SkipsHeadingWithoutTitle(t *testing.T) {
	api := &fakeAPI{}
	conn := &fakeConnector{rs: &dbclient.ResultSet{
		Columns: []string{"id"},
		Rows:    [][]string{{"1"}},
	}}
	svc := importSvc(api, nil, conn)

	_, err := svc.Import(context.Background(), service.ImportRequest{
		Ref:    testRef(),
		Driver: "sqlite",
		Query:  "SELECT id FROM t",
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	calls := api.docCreates(testRef().Token)
	if len(calls) != 1 {
		t.Fatalf("expected only the table skeleton, got %d calls", len(calls))
	}
	if !calls[0].children[0].IsTable() {
		t.Error("expected a table skeleton")
	}
}

func TestImportService_EmptyResultFails(t *testing.T) {
	api := &fakeAPI{}
	runs := &fakeRuns{}
	conn := &fakeConnector{rs: &dbclient.ResultSet{Columns: []string{"id"}}}
	svc := importSvc(api, runs, conn)

	_, err := svc.Import(context.Background(), service.ImportRequest{
		Ref:    testRef(),
		Driver: "postgres",
		Query:  "SELECT id FROM empty",
	})
	if err == nil {
		t.Fatal("expected an error for an empty result set")
	}
	if !strings.Contains(err.Error(), "no rows") {
		t.Errorf("unexpected error: %v", err)
	}
	if len(api.creates) != 0 {
		t.Error("an empty result must not touch the document")
	}
	if !conn.closed {
		t.Error("expected the connector to be closed")
	}
	if len(runs.runs) != 0 {
		t.Error("a failed query must not record a run")
	}
}

func TestImportService_ConnectErrorIsWrapped(t *testing.T) {
	svc := service.NewImportService(&fakeAPI{}, nil,
		service.WithConnector(func(driver, dsn string) (dbclient.Connector, error) {
			return nil, errors.New("dial refused")
		}),
	)

	_, err := svc.Import(context.Background(), service.ImportRequest{
		Ref:    testRef(),
		Driver: "mysql",
		Query:  "SELECT 1",
	})
	if err == nil {
		t.Fatal("expected a connect error")
	}
	if !strings.Contains(err.Error(), "connect to mysql") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestImportService_QueryErrorIsWrapped(t *testing.T) {
	conn := &fakeConnector{queryErr: errors.New("syntax error")}
	svc := importSvc(&fakeAPI{}, nil, conn)

	_, err := svc.Import(context.Background(), service.ImportRequest{
		Ref:    testRef(),
		Driver: "sqlite",
		Query:  "SELEKT",
	})
	if err == nil {
		t.Fatal("expected a query error")
	}
	if !strings.Contains(err.Error(), "run import query") {
		t.Errorf("unexpected error: %v", err)
	}
	if !conn.closed {
		t.Error("expected the connector to be closed")
	}
}

package app

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"larkmd/internal/auth"
	"larkmd/internal/config"
	"larkmd/internal/domain"
	"larkmd/internal/feishu"
	mcpserver "larkmd/internal/mcp"
	"larkmd/internal/service"
	"larkmd/internal/storage"
)

const usage = `larkmd syncs Markdown with Feishu/Lark documents.

Usage:
  larkmd read <url>
  larkmd write <url> <file.md>
  larkmd append <url> <file.md>
  larkmd clear <url>
  larkmd import <url> -driver <name> -dsn <dsn> -query <q> [-max-rows n] [-title t]
  larkmd watch <url> <file.md> [-cron <expr>]
  larkmd history [url] [-limit n]
  larkmd logout
  larkmd mcp

Configuration lives in ~/.config/larkmd/larkmd.yaml; FEISHU_APP_ID and
FEISHU_APP_SECRET override the file.
`

// App wires configuration, storage, the API client and the services
// behind the CLI subcommands.
type App struct {
	cfg      *config.Config
	db       *storage.DB
	provider *auth.Provider
	docs     *service.DocumentService
	importer *service.ImportService
	watch    *service.WatchService
}

// New loads configuration, opens local storage and builds the service
// graph.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := storage.New(filepath.Join(cfg.DataDir, "larkmd.db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	creds := storage.NewCredentialStore(db)
	provider := auth.NewProvider(cfg.AppID, cfg.AppSecret, cfg.APIBase, creds)
	if cfg.UserAccessToken != "" {
		if err := provider.SeedUserTokens(cfg.UserAccessToken, cfg.RefreshToken); err != nil {
			db.Close()
			return nil, fmt.Errorf("seed user tokens: %w", err)
		}
	}

	client := feishu.NewClient(cfg.APIBase, provider)
	runs := storage.NewRunStore(db)
	docs := service.NewDocumentService(client, runs)

	return &App{
		cfg:      cfg,
		db:       db,
		provider: provider,
		docs:     docs,
		importer: service.NewImportService(client, runs),
		watch:    service.NewWatchService(docs),
	}, nil
}

// Close releases local storage.
func (a *App) Close() error {
	return a.db.Close()
}

// Run dispatches one CLI invocation.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "read":
		return a.runRead(ctx, rest)
	case "write":
		return a.runPush(ctx, rest, "write")
	case "append":
		return a.runPush(ctx, rest, "append")
	case "clear":
		return a.runClear(ctx, rest)
	case "import":
		return a.runImport(ctx, rest)
	case "watch":
		return a.runWatch(ctx, rest)
	case "history":
		return a.runHistory(rest)
	case "logout":
		return a.runLogout()
	case "mcp":
		return a.runMCP()
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) runRead(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: larkmd read <url>")
	}
	ref, err := domain.ParseDocURL(args[0])
	if err != nil {
		return err
	}
	res, err := a.docs.Read(ctx, ref)
	if err != nil {
		return describe("read", err)
	}
	return printJSON(res)
}

func (a *App) runPush(ctx context.Context, args []string, action string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: larkmd %s <url> <file.md>", action)
	}
	ref, err := domain.ParseDocURL(args[0])
	if err != nil {
		return err
	}
	content, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[1], err)
	}

	var res *service.WriteResult
	if action == "write" {
		res, err = a.docs.Write(ctx, ref, string(content))
	} else {
		res, err = a.docs.Append(ctx, ref, string(content))
	}
	if err != nil {
		// Committed counts still print: the push stops where it failed
		// and nothing is rolled back.
		if res != nil {
			printJSON(res)
		}
		return describe(action, err)
	}
	return printJSON(res)
}

func (a *App) runClear(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: larkmd clear <url>")
	}
	ref, err := domain.ParseDocURL(args[0])
	if err != nil {
		return err
	}
	res, err := a.docs.Clear(ctx, ref)
	if err != nil {
		return describe("clear", err)
	}
	return printJSON(res)
}

func (a *App) runImport(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: larkmd import <url> -driver <name> -dsn <dsn> -query <q>")
	}
	ref, err := domain.ParseDocURL(args[0])
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	driver := fs.String("driver", "", "database driver: mysql, postgres, sqlite or mongodb")
	dsn := fs.String("dsn", "", "connection string")
	query := fs.String("query", "", "read query, or a JSON find spec for mongodb")
	maxRows := fs.Int("max-rows", 0, "maximum rows to import (default 50)")
	title := fs.String("title", "", "optional heading above the table")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *driver == "" || *dsn == "" || *query == "" {
		return fmt.Errorf("import: -driver, -dsn and -query are required")
	}

	res, err := a.importer.Import(ctx, service.ImportRequest{
		Ref:    ref,
		Driver: *driver,
		DSN:    *dsn,
		Query:  *query,
		Limit:  *maxRows,
		Title:  *title,
	})
	if err != nil {
		if res != nil {
			printJSON(res)
		}
		return describe("import", err)
	}
	return printJSON(res)
}

func (a *App) runWatch(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: larkmd watch <url> <file.md> [-cron <expr>]")
	}
	ref, err := domain.ParseDocURL(args[0])
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	cronExpr := fs.String("cron", "", "cron expression for periodic re-push")
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}

	err = a.watch.Start(ctx, service.WatchSpec{Ref: ref, Path: args[1], Cron: *cronExpr})
	if err != nil {
		return describe("watch", err)
	}

	<-ctx.Done()
	a.watch.Stop()

	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.watch.WaitRunning(waitCtx)
	return nil
}

func (a *App) runHistory(args []string) error {
	docToken := ""
	rest := args
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		ref, err := domain.ParseDocURL(args[0])
		if err != nil {
			return err
		}
		docToken = ref.Token
		rest = args[1:]
	}

	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum runs to list")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	runs, err := a.docs.History(docToken, *limit)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("no sync runs recorded")
		return nil
	}
	return printJSON(runs)
}

func (a *App) runLogout() error {
	if err := a.provider.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	fmt.Println("credentials cleared")
	return nil
}

func (a *App) runMCP() error {
	srv := mcpserver.New(mcpserver.Deps{Docs: a.docs, Importer: a.importer})
	return srv.ServeStdio()
}

// describe prefixes the failed operation and adds a hint for the two
// remote failure classes the user can act on.
func describe(op string, err error) error {
	switch {
	case feishu.IsAuthExpired(err):
		return fmt.Errorf("%s: %w (access token expired, update user_access_token in the config or use a fresh tenant grant)", op, err)
	case feishu.IsPermissionDenied(err):
		return fmt.Errorf("%s: %w (the app has no permission on this document, share it with the app first)", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

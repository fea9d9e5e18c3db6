// CLAUDE:SUMMARY CLI entry point for domselect: one-shot picks from a file or URL, HTTP API server, MCP over stdio.
// Command domselect synthesizes stable CSS locators for elements of a page.
//
// Usage:
//
//	domselect -file page.html -target 'form button'         # pick from HTML (- for stdin)
//	domselect -url https://example.com -target 'x-app >>> .save' -copy
//	domselect -serve :8086 -db domselect.db                 # HTTP API
//	domselect -mcp                                          # MCP over stdio
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/domselect/picker"
)

const version = "0.1.0"

type options struct {
	file, url, target string
	stealth           string
	jsonOut, copy     bool
	serve             string
	mcp               bool
}

func main() {
	var o options
	flag.StringVar(&o.file, "file", "", "HTML file to pick from (- reads stdin)")
	flag.StringVar(&o.url, "url", "", "page URL to pick from")
	flag.StringVar(&o.target, "target", "", "CSS selector naming the element (' >>> ' enters shadow roots)")
	flag.StringVar(&o.stealth, "stealth", "auto", "page load: 0 (http), 1 (headless), 2 (headful), auto")
	deepShadow := flag.Bool("deep-shadow", true, "pierce open shadow roots in structural paths")
	configPath := flag.String("config", "", "path to domselect.yaml config file")
	flag.BoolVar(&o.jsonOut, "json", false, "print the pick as JSON")
	flag.BoolVar(&o.copy, "copy", false, "copy the primary locator to the clipboard")
	dbPath := flag.String("db", "", "record picks in this SQLite database")
	flag.StringVar(&o.serve, "serve", "", "serve the HTTP API on this address")
	flag.BoolVar(&o.mcp, "mcp", false, "serve MCP tools over stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("domselect: fatal", "error", err)
		os.Exit(1)
	}
	// Flags win over the file, but only when given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "deep-shadow":
			cfg.DeepShadow = deepShadow
		case "db":
			cfg.DBPath = *dbPath
		case "serve":
			cfg.Listen = o.serve
		}
	})

	// One-shot picks run on the user's own machine and may load localhost.
	if o.serve == "" && !o.mcp {
		cfg.AllowPrivate = true
	}

	err = run(ctx, logger, cfg, o)
	stop()
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	case err != nil:
		logger.Error("domselect: fatal", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*picker.Config, error) {
	if path == "" {
		return picker.DefaultConfig(), nil
	}
	return picker.LoadConfig(path)
}

const usage = "usage: domselect -file <path|-> -target <selector> | -url <url> -target <selector> | -serve <addr> | -mcp"

// errUsage is returned by run when no mode was selected.
var errUsage = errors.New("no mode selected")

func run(ctx context.Context, logger *slog.Logger, cfg *picker.Config, o options) error {
	if !o.mcp && o.serve == "" && o.file == "" && o.url == "" {
		return errUsage
	}

	p, err := picker.New(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	switch {
	case o.mcp:
		return runMCP(ctx, p)
	case o.serve != "":
		return runServer(ctx, logger, p, cfg.Listen)
	default:
		return runPick(ctx, p, o)
	}
}

func runPick(ctx context.Context, p *picker.Picker, o options) error {
	if o.target == "" {
		return errors.New("-target is required")
	}

	var (
		pick *picker.Pick
		err  error
	)
	if o.file != "" {
		src, rerr := readInput(o.file)
		if rerr != nil {
			return rerr
		}
		pick, err = p.PickHTML(ctx, src, o.target, o.url)
	} else {
		lvl, lerr := picker.ParseLevel(o.stealth)
		if lerr != nil {
			return lerr
		}
		pick, err = p.PickURL(ctx, o.url, o.target, lvl)
	}
	if err != nil {
		return err
	}

	if o.jsonOut {
		data, err := json.MarshalIndent(pick, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		os.Stdout.Write(data)
		os.Stdout.Write([]byte("\n"))
	} else {
		fmt.Println(picker.Render(pick))
	}

	if o.copy {
		if err := clipboard.WriteAll(pick.Result.Primary); err != nil {
			return fmt.Errorf("copy: %w", err)
		}
		slog.Info("domselect: copied", "locator", pick.Result.Primary)
	}
	return nil
}

func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func runMCP(ctx context.Context, p *picker.Picker) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "domselect", Version: version}, nil)
	p.RegisterMCP(srv)
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func runServer(ctx context.Context, logger *slog.Logger, p *picker.Picker, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           p.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("domselect: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

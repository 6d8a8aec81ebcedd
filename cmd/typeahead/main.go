// Copyright 2025 The Typeahead Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main runs the typeahead front ends and the completion server.

Typeahead drives an asynchronous autocomplete core. Keystrokes are debounced
and repeated queries are answered from a small FIFO cache. Failed fetches are
retried with a linear backoff, and a stale response never overwrites a newer one.

# Usage

Start the interactive terminal UI over the bundled dictionary:

	typeahead

Use a custom data directory and enable debug logging:

	typeahead -data /path/to/words -d

Run the line driven CLI, useful for scripting and debugging:

	typeahead -c

Serve completions over MessagePack on stdin/stdout:

	typeahead -serve

Use another process as the suggestion source:

	typeahead -remote "typeahead -serve -data /srv/words"

The data directory holds binary chunks named dict_0001.bin, dict_0002.bin and
so on, or plain text word lists with one "word frequency" pair per line.

# Configuration

A TOML file is created with defaults on first run:

	[autocomplete]
	debounce_ms = 300
	min_chars = 1
	max_cache = 50
	max_attempts = 2
	backoff_base_ms = 150

	[dict]
	max_words = 50000
	min_frequency_threshold = 20
	fuzzy = false

	[server]
	max_limit = 64
	min_prefix = 1
	max_prefix = 60
	enable_filter = true

	[cli]
	default_limit = 10
	default_no_filter = false

# IPC Protocol

Requests and responses are consecutive MessagePack maps:

	{"id": "1", "p": "hel", "l": 5, "m": "fuzzy"}
	{"id": "1", "s": [{"w": "hello", "r": 1, "f": 900}], "c": 1, "t": 145}

Errors carry a message and a code:

	{"id": "2", "e": "prefix too short", "c": 400}
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bastiangx/typeahead/internal/cli"
	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/internal/tui"
	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/autocomplete"
	"github.com/bastiangx/typeahead/pkg/client"
	"github.com/bastiangx/typeahead/pkg/config"
	"github.com/bastiangx/typeahead/pkg/dictionary"
	"github.com/bastiangx/typeahead/pkg/server"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	Version = "0.3.0"
	AppName = "typeahead"
	gh      = "https://github.com/bastiangx/typeahead"
)

// source is where suggestions come from: a local completer or a remote server.
type source struct {
	fetch  autocomplete.FetchFunc[suggest.Suggestion]
	sel    autocomplete.SelectFunc[suggest.Suggestion]
	closer func() error
	wait   func() error
}

// main parses flags and hands off to the selected mode.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	dataDir := flag.String("data", "data/", "Directory containing the dictionary files")
	configPath := flag.String("config", "", "Path to a custom config file")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run the line driven CLI instead of the terminal UI")
	serveMode := flag.Bool("serve", false, "Serve completions over MessagePack on stdin/stdout")
	remote := flag.String("remote", "", "Command of a completion server to use as the suggestion source")
	fuzzy := flag.Bool("fuzzy", false, "Correct mistyped prefixes when nothing matches")
	limit := flag.Int("limit", 0, "Number of suggestions to show (default from config)")
	noFilter := flag.Bool("no-filter", false, "Disable input filtering (DBG only)")

	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	cfg, activePath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(activePath))

	if *limit <= 0 {
		*limit = cfg.CLI.DefaultLimit
	}
	*noFilter = *noFilter || cfg.CLI.DefaultNoFilter
	*fuzzy = *fuzzy || cfg.Dict.Fuzzy

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serveMode {
		completer := loadCompleter(cfg, *dataDir, activePath)
		srv := server.NewServer(completer, cfg.Server, os.Stdin, os.Stdout)
		if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Server error: %v", err)
		}
		return
	}

	var src *source
	if *remote != "" {
		src, err = remoteSource(ctx, *remote, *limit, *fuzzy)
		if err != nil {
			log.Fatalf("Failed to start remote source: %v", err)
		}
	} else {
		completer := loadCompleter(cfg, *dataDir, activePath)
		src = &source{
			fetch: suggest.Fetcher(completer, *limit, *fuzzy),
			sel:   suggest.Selector(completer, *limit),
		}
	}

	if err := run(ctx, cfg, src, *cliMode, *limit, *noFilter, debugLogPath(activePath)); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("%v", err)
	}
}

// run starts the front end and, for a remote source, supervises the server
// process alongside it.
func run(ctx context.Context, cfg *config.Config, src *source, cliMode bool, limit int, noFilter bool, logPath string) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if src.closer != nil {
			defer src.closer()
		}
		if cliMode {
			return runCLI(gctx, cfg, src, noFilter)
		}
		return runTUI(gctx, cfg, src, limit, logPath)
	})
	if src.wait != nil {
		g.Go(src.wait)
	}
	return g.Wait()
}

func runCLI(ctx context.Context, cfg *config.Config, src *source, noFilter bool) error {
	log.SetReportTimestamp(false)
	opts := cfg.Autocomplete.Options()
	if log.GetLevel() <= log.DebugLevel {
		opts.Logger = logger.New("autocomplete")
	}
	h := cli.NewInputHandler(os.Stdin, os.Stdout, cfg.Server.MaxPrefix, noFilter)
	ac := autocomplete.New(opts, autocomplete.Hooks[suggest.Suggestion]{
		Fetch:    src.fetch,
		Select:   src.sel,
		OnChange: h.Render,
		Label:    suggest.Label,
	})
	defer func() {
		ac.Close()
		ac.Wait()
	}()
	h.Attach(ac)
	return h.Start(ctx)
}

func runTUI(ctx context.Context, cfg *config.Config, src *source, limit int, logPath string) error {
	// The terminal belongs to the UI. Orchestrator logs go to a file when
	// debugging and nowhere otherwise.
	opts := cfg.Autocomplete.Options()
	opts.Logger = logger.Discard()
	if log.GetLevel() <= log.DebugLevel {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer f.Close()
		opts.Logger = logger.NewWithConfig(f, "autocomplete", log.DebugLevel, true, true, log.TextFormatter)
		log.SetOutput(f)
	} else {
		log.SetLevel(log.ErrorLevel)
	}

	var n tui.Notifier
	ac := autocomplete.New(opts, autocomplete.Hooks[suggest.Suggestion]{
		Fetch:    src.fetch,
		Select:   src.sel,
		OnChange: n.OnChange,
		Label:    suggest.Label,
	})
	defer func() {
		ac.Close()
		ac.Wait()
	}()
	return tui.Run(ctx, ac, &n, limit)
}

// debugLogPath places the TUI debug log next to the active config file.
func debugLogPath(configPath string) string {
	if configPath == "" {
		return AppName + ".log"
	}
	return filepath.Join(filepath.Dir(configPath), AppName+".log")
}

// loadCompleter builds a completer from the resolved data directory. A
// missing dictionary leaves it empty rather than failing.
func loadCompleter(cfg *config.Config, dataDir, configPath string) *suggest.Completer {
	configDir := ""
	if configPath != "" {
		configDir = filepath.Dir(configPath)
	}
	resolved := utils.ResolveDataDir(dataDir, configDir)
	log.Debugf("Using data dir at: %s", resolved)

	completer := suggest.NewCompleter()
	completer.SetMinFrequency(cfg.Dict.MinFreqThreshold)

	entries, err := dictionary.LoadDir(resolved, cfg.Dict.MaxWords)
	if err != nil {
		log.Warnf("Running with an empty dictionary: %v", err)
		return completer
	}
	completer.AddEntries(entries)
	log.Debug("Completer init done", "words", utils.FormatWithCommas(completer.Stats()["totalWords"]))
	return completer
}

// remoteSource spawns command and talks to it over its stdin and stdout.
func remoteSource(ctx context.Context, command string, limit int, fuzzy bool) (*source, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("empty remote command")
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("remote stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("remote stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %q: %w", args[0], err)
	}
	log.Debug("Remote source started", "pid", cmd.Process.Pid)

	c := client.New(stdout, stdin)
	return &source{
		fetch:  client.Fetcher(c, limit, fuzzy),
		sel:    client.Selector(c, limit),
		closer: c.Close,
		wait: func() error {
			// Wait closes stdout, so every read must be done first.
			<-c.Done()
			if err := cmd.Wait(); err != nil && ctx.Err() == nil {
				return fmt.Errorf("remote source exited: %w", err)
			}
			return nil
		},
	}, nil
}

// printVersion prints a short banner.
func printVersion() {
	banner := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ Typeahead ] Async completions as you type", "app", AppName)
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

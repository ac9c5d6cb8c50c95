// Command ccm is a self-hosting parallel build orchestrator: it
// bootstraps itself when its own sources are newer than its binary,
// then builds a declared graph of compiled-artifact targets with
// bounded parallelism, skipping targets whose output is already
// fresh. See SPEC_FULL.md for the full design.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	kongcompletion "github.com/jotaen/kong-completion"
	"github.com/mitchellh/go-homedir"
	"github.com/posener/complete"

	"github.com/ccmhq/ccm/buildlog"
	"github.com/ccmhq/ccm/specfile"
)

// Context is threaded into every subcommand's Run method, grounded on
// cmd/sand/main.go's Context struct.
type Context struct {
	Ctx      context.Context
	Logger   *slog.Logger
	Document *specfile.Document
	SpecPath string
	CLI      *CLI
}

// CLI is the top-level flag/subcommand set, grounded on cmd/sand/main.go's CLI struct.
type CLI struct {
	SpecPath     string `name:"spec" short:"f" default:"ccm.yaml" placeholder:"<path>" help:"path to the YAML build-spec file"`
	Jobs         int    `name:"jobs" short:"j" help:"parallelism cap J (default: number of CPUs)"`
	LogFile      string `name:"log-file" placeholder:"<path>" help:"path to the log file (empty: stderr)"`
	LogLevel     string `name:"log-level" default:"info" placeholder:"<none|debug|info|warn|error>" help:"logger level"`
	LogRotate    bool   `name:"log-rotate" help:"rotate the log file with lumberjack"`
	HistoryDB    string `name:"history-db" placeholder:"<path>" help:"optional sqlite build-history database path"`
	OTLPEndpoint string `name:"otlp-endpoint" placeholder:"<host:port>" help:"optional OTLP/gRPC endpoint for trace export"`
	DebugShell   bool   `name:"debug-shell" help:"drop into an interactive shell on each target failure"`

	Build      BuildCmd            `cmd:"" help:"bootstrap if needed, then build declared targets"`
	Clean      CleanCmd            `cmd:"" help:"remove each declared target's output path"`
	Version    VersionCmd          `cmd:"" help:"print version information"`
	Completion kongcompletion.Cmd  `cmd:"" help:"print shell completion script"`
}

func main() {
	var cli CLI

	parser := kong.Must(&cli,
		kong.Name("ccm"),
		kong.Description("Self-hosting parallel build orchestrator."),
		kong.Configuration(kongyaml.Loader, configPath()),
		kong.UsageOnError(),
	)

	kongcompletion.Register(parser,
		kongcompletion.WithPredictor("target", complete.PredictFunc(predictTargets(&cli))),
	)

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	logger, err := buildlog.New(buildlog.Options{
		Level:  buildlog.Level(cli.LogLevel),
		File:   cli.LogFile,
		Rotate: cli.LogRotate,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ccm: %v\n", err)
		os.Exit(1)
	}

	if cli.Jobs <= 0 {
		cli.Jobs = runtime.NumCPU()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runCtx := &Context{Ctx: ctx, Logger: logger, SpecPath: cli.SpecPath, CLI: &cli}
	needsSpec := !strings.HasPrefix(kctx.Command(), "version") && !strings.HasPrefix(kctx.Command(), "completion")
	if needsSpec {
		doc, err := specfile.Load(cli.SpecPath)
		if err != nil {
			logger.Error("failed to load build spec", "error", err)
			os.Exit(1)
		}
		runCtx.Document = doc
	}

	kctx.Bind(&cli)
	if err := kctx.Run(runCtx); err != nil {
		logger.Error("ccm failed", "error", err)
		os.Exit(1)
	}
}

func configPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return ".ccm.yaml"
	}
	return home + "/.ccm.yaml"
}

// predictTargets supplies dynamic completion of declared target names
// for `ccm build <target>`, reading the spec file named by --spec (or
// its default) in the current directory if present. Composed with
// kong-completion's generated completer, since kong-completion is
// itself built on posener/complete's predictor model.
func predictTargets(cli *CLI) func(complete.Args) []string {
	return func(complete.Args) []string {
		path := cli.SpecPath
		if path == "" {
			path = "ccm.yaml"
		}
		doc, err := specfile.Load(path)
		if err != nil {
			return nil
		}
		return doc.Names()
	}
}

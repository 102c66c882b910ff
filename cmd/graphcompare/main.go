package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ritzau/graphcompare/pkg/analysis"
	"github.com/ritzau/graphcompare/pkg/compare"
	"github.com/ritzau/graphcompare/pkg/config"
	"github.com/ritzau/graphcompare/pkg/dotfile"
	"github.com/ritzau/graphcompare/pkg/finder"
	"github.com/ritzau/graphcompare/pkg/logging"
	"github.com/ritzau/graphcompare/pkg/output"
	"github.com/ritzau/graphcompare/pkg/watcher"
	"github.com/ritzau/graphcompare/pkg/web"
)

// Exit codes
const (
	exitEqual  = 0
	exitDiffer = 1
	exitUsage  = 2
	exitError  = 3
)

const usage = `Usage: graphcompare [flags] <graphA.dot|-> <graphB.dot|->
       graphcompare [flags] --dir-a <dir> --dir-b <dir>

Compares two network flow graphs and exits 0 when they hold the same flows,
1 when they differ, 2 on usage errors and 3 when a graph cannot be loaded.

Flags:
`

// errUsage marks errors that should print usage and exit with exitUsage
var errUsage = errors.New("usage error")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("graphcompare", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}
	config.RegisterFlags(flags)

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitEqual
		}
		return exitUsage
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if err := setupLogging(cfg, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	pairing, err := resolveInputs(cfg, flags.Args())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			flags.Usage()
			return exitUsage
		}
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		cfg:     cfg,
		stdout:  stdout,
		stderr:  stderr,
		pairing: pairing,
		inputs:  flags.Args(),
	}
	return a.run(ctx, stdin)
}

func setupLogging(cfg *config.Config, stderr io.Writer) error {
	level := logging.LevelForVerbosity(cfg.VerboseCnt)
	if cfg.LogLevel != "" {
		var err error
		if level, err = logging.ParseLevel(cfg.LogLevel); err != nil {
			return err
		}
	}
	logging.SetOutput(stderr, level, cfg.LogJSON)
	return nil
}

// resolveInputs turns the positional arguments or the directory options
// into the pairs to compare
func resolveInputs(cfg *config.Config, args []string) (*finder.Pairing, error) {
	if cfg.BatchMode() {
		if len(args) > 0 {
			return nil, fmt.Errorf("%w: graph paths cannot be combined with --dir-a/--dir-b", errUsage)
		}
		pairing, err := finder.PairDotFiles(cfg.DirA, cfg.DirB)
		if err != nil {
			return nil, err
		}
		logging.Info("paired graph files", "pairs", len(pairing.Pairs), "onlyA", len(pairing.OnlyA), "onlyB", len(pairing.OnlyB))
		return pairing, nil
	}

	if len(args) != 2 {
		return nil, fmt.Errorf("%w: expected two graph paths, got %d", errUsage, len(args))
	}
	a, b := args[0], args[1]
	if a == dotfile.StdinPath && b == dotfile.StdinPath {
		return nil, fmt.Errorf("%w: only one graph can be read from standard input", errUsage)
	}
	if cfg.Watch && (a == dotfile.StdinPath || b == dotfile.StdinPath) {
		return nil, fmt.Errorf("%w: --watch cannot follow standard input", errUsage)
	}

	return &finder.Pairing{Pairs: []finder.Pair{{Name: a + " vs " + b, A: a, B: b}}}, nil
}

type app struct {
	cfg     *config.Config
	stdout  io.Writer
	stderr  io.Writer
	runner  *analysis.Runner
	pairing *finder.Pairing
	inputs  []string
}

func (a *app) run(ctx context.Context, stdin io.Reader) int {
	comparator := compare.New(compare.Options{
		AlwaysExtract: a.cfg.AlwaysExtract,
		Levels:        a.cfg.Levels,
	})
	opts := []analysis.Option{
		analysis.WithLoader(dotfile.NewLoader(stdin)),
		analysis.WithJobs(a.cfg.Jobs),
	}

	var server *web.Server
	if a.cfg.WebMode {
		server = web.NewServer()
		opts = append(opts, analysis.WithPublisher(server.Publisher()))
	}
	a.runner = analysis.NewRunner(comparator, opts...)

	serverErr := make(chan error, 1)
	if server != nil {
		server.SetReports(a.runner)
		go func() { serverErr <- server.Start(ctx, a.cfg.Port) }()
	}

	report, err := a.runner.Run(ctx, a.pairing, "initial comparison")
	if err != nil {
		logging.Error("comparison failed", "error", err)
		return exitError
	}
	if err := a.print(report); err != nil {
		logging.Error("failed to write report", "error", err)
		return exitError
	}

	if a.cfg.Watch {
		if err := a.watch(ctx); err != nil {
			logging.Error("watch failed", "error", err)
			return exitError
		}
	}

	if server != nil {
		var err error
		select {
		case err = <-serverErr:
		case <-ctx.Done():
			err = <-serverErr
		}
		if err != nil {
			logging.Error("web server failed", "error", err)
			return exitError
		}
	}

	return exitCode(a.runner.Latest())
}

func (a *app) print(report *analysis.Report) error {
	return output.Write(a.stdout, a.cfg.Format, report, output.Options{
		Verbose: a.cfg.VerboseCnt > 0,
		NoColor: a.cfg.NoColor,
		Errors:  a.stderr,
	})
}

// watch re-runs affected comparisons whenever an input changes, until ctx is done
func (a *app) watch(ctx context.Context) error {
	paths := a.inputs
	if a.cfg.BatchMode() {
		paths = []string{a.cfg.DirA, a.cfg.DirB}
	}

	fw, err := watcher.NewFileWatcher(paths...)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), a.cfg.QuietPeriod, a.cfg.MaxWait)
	debouncer.Start(ctx)

	for event := range debouncer.Output() {
		changes := watcher.AnalyzeChanges(event, a.pairing.Pairs)
		reason := fmt.Sprintf("%d file(s) %s", len(changes.ChangedFiles), event.Type)

		var report *analysis.Report
		switch {
		case changes.NeedRescan && a.cfg.BatchMode():
			pairing, err := finder.PairDotFiles(a.cfg.DirA, a.cfg.DirB)
			if err != nil {
				logging.Warn("failed to rescan directories", "error", err)
				continue
			}
			a.pairing = pairing
			report, err = a.runner.Run(ctx, pairing, reason)
			if err != nil {
				return nil // cancelled
			}
		case changes.NeedRescan:
			// a replaced file: compare everything again
			report, err = a.runner.Rerun(ctx, a.pairing.Pairs, reason)
			if err != nil {
				return nil
			}
		case len(changes.Pairs) > 0:
			report, err = a.runner.Rerun(ctx, changes.Pairs, reason)
			if err != nil {
				return nil
			}
		default:
			continue
		}

		if err := a.print(report); err != nil {
			return err
		}
	}
	return nil
}

func exitCode(report *analysis.Report) int {
	switch {
	case report == nil || len(report.Failed()) > 0:
		return exitError
	case !report.Equal():
		return exitDiffer
	}
	return exitEqual
}

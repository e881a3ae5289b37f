package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/message"
	"github.com/kode4food/caravan/topic"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	app "github.com/kode4food/streamtest"
	"github.com/kode4food/streamtest/internal/config"
	"github.com/kode4food/streamtest/internal/report"
	"github.com/kode4food/streamtest/internal/scenario"
	"github.com/kode4food/streamtest/pkg/log"
)

type (
	streamtest struct {
		cfg *config.Config
		out io.Writer
	}

	outcome struct {
		idx int
		res *scenario.Result
	}
)

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

var (
	ErrScenariosFailed = errors.New("scenarios failed")
	ErrNoPaths         = errors.New("at least one path is required")
	ErrArchive         = errors.New("failed to archive results")
	errFailFast        = errors.New("stopping after first failure")
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrScenariosFailed) {
			slog.Error("Run failed", log.Error(err))
		}
		stop()
		os.Exit(ExitCodeError)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   app.Name,
		Short: "Verify reactive sequences described by YAML scenarios",
		Long: `streamtest loads declarative scenarios, subscribes to the sequence
each one describes and checks the recorded signals against its steps.`,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "streamtest version %s\n" .Version}}`)
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of streamtest",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(),
				"%s version %s\n", app.Name, app.Version)
		},
	}
}

func newRunCmd() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cmd := &cobra.Command{
		Use:   "run <paths...>",
		Short: "Run scenario files or directories",
		Args:  cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return ErrNoPaths
			}
			s := &streamtest{
				cfg: cfg,
				out: cmd.OutOrStdout(),
			}
			s.setupLogging(cmd.ErrOrStderr())
			return s.run(cmd.Context(), args)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&cfg.Parallel, "parallel", "p", cfg.Parallel,
		"number of scenarios to run at once")
	flags.DurationVarP(&cfg.Timeout, "timeout", "t", cfg.Timeout,
		"default wait for each expected signal")
	flags.StringVarP(&cfg.Format, "format", "f", cfg.Format,
		"report format (table or json)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel,
		"log level (debug, info, warn, error)")
	flags.BoolVar(&cfg.FailFast, "fail-fast", cfg.FailFast,
		"stop scheduling scenarios after the first failure")
	flags.StringVar(&cfg.ArchiveURL, "archive", cfg.ArchiveURL,
		"bucket URL that receives the run results")
	flags.StringVar(&cfg.ArchivePrefix, "archive-prefix", cfg.ArchivePrefix,
		"key prefix for archived runs")
	return cmd
}

// loadConfig applies environment overrides, then reapplies any flags that
// were set explicitly so that flags take precedence
func loadConfig(cmd *cobra.Command, cfg *config.Config) error {
	flagged := *cfg
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("parallel") {
		cfg.Parallel = flagged.Parallel
	}
	if flags.Changed("timeout") {
		cfg.Timeout = flagged.Timeout
	}
	if flags.Changed("format") {
		cfg.Format = flagged.Format
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagged.LogLevel
	}
	if flags.Changed("fail-fast") {
		cfg.FailFast = flagged.FailFast
	}
	if flags.Changed("archive") {
		cfg.ArchiveURL = flagged.ArchiveURL
	}
	if flags.Changed("archive-prefix") {
		cfg.ArchivePrefix = flagged.ArchivePrefix
	}
	return cfg.Validate()
}

func (s *streamtest) setupLogging(w io.Writer) {
	level, _ := log.ParseLevel(s.cfg.LogLevel)
	env := os.Getenv("ENV")
	logger := log.NewWithWriter(w, app.Name, env, app.Version, level)
	slog.SetDefault(logger)

	slog.Debug("Configuration loaded",
		slog.Duration("timeout", s.cfg.Timeout),
		slog.Int("parallel", s.cfg.Parallel),
		slog.String("format", s.cfg.Format),
		slog.Bool("fail_fast", s.cfg.FailFast))
}

func (s *streamtest) run(ctx context.Context, paths []string) error {
	var scs []*scenario.Scenario
	for _, p := range paths {
		res, err := scenario.Load(p)
		if err != nil {
			return err
		}
		scs = append(scs, res...)
	}

	results, err := s.runAll(ctx, scs)
	if err != nil {
		return err
	}
	if err := report.Write(s.out, s.cfg.Format, results); err != nil {
		return err
	}
	if s.cfg.ArchiveURL != "" {
		if err := s.archive(ctx, results); err != nil {
			return err
		}
	}

	if sum := report.Summarize(results); sum.Failed > 0 {
		return fmt.Errorf("%w: %d of %d",
			ErrScenariosFailed, sum.Failed, sum.Total)
	}
	return nil
}

func (s *streamtest) archive(
	ctx context.Context, results []*scenario.Result,
) error {
	a, err := report.OpenArchive(ctx, s.cfg.ArchiveURL, s.cfg.ArchivePrefix)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}
	defer func() { _ = a.Close() }()

	runID := uuid.NewString()
	if err := a.Put(ctx, runID, results); err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}
	slog.Info("Run archived",
		slog.String("run_id", runID),
		slog.String("bucket", s.cfg.ArchiveURL))
	return nil
}

// runAll verifies scenarios concurrently, publishing each result to a topic
// read by a single collector
func (s *streamtest) runAll(
	ctx context.Context, scs []*scenario.Scenario,
) ([]*scenario.Result, error) {
	outcomes := caravan.NewTopic[outcome]()
	cons := outcomes.NewConsumer()
	defer cons.Close()
	prod := outcomes.NewProducer()
	defer prod.Close()

	runner := scenario.NewRunner(s.cfg.Timeout)
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(s.cfg.Parallel)

	start := time.Now()
	sent := 0
	for i, sc := range scs {
		if grpCtx.Err() != nil {
			break
		}
		sent++
		grp.Go(func() error {
			if grpCtx.Err() != nil {
				message.Send(prod, outcome{idx: i})
				return nil
			}
			res := runner.Run(grpCtx, sc)
			message.Send(prod, outcome{idx: i, res: res})
			if !res.Passed && s.cfg.FailFast {
				return errFailFast
			}
			return nil
		})
	}

	collected, err := collect(ctx, cons, sent)
	if gErr := grp.Wait(); gErr != nil && !errors.Is(gErr, errFailFast) {
		return nil, gErr
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("Scenarios finished",
		slog.Int("count", len(collected)),
		slog.Duration("elapsed", time.Since(start)))
	return collected, nil
}

// collect gathers count outcomes and returns their results in load order.
// Scenarios skipped after a fail-fast stop carry no result
func collect(
	ctx context.Context, cons topic.Consumer[outcome], count int,
) ([]*scenario.Result, error) {
	byIndex := map[int]*scenario.Result{}
	for len(byIndex) < count {
		select {
		case o := <-cons.Receive():
			if o.res != nil {
				slog.Debug("Scenario finished",
					log.Scenario(o.res.Name),
					slog.Bool("passed", o.res.Passed))
			}
			byIndex[o.idx] = o.res
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	res := make([]*scenario.Result, 0, count)
	for i := range count {
		if r := byIndex[i]; r != nil {
			res = append(res, r)
		}
	}
	return res, nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"ewscli/internal/app"
	"ewscli/internal/config"
	"ewscli/internal/infrastructure"
	"ewscli/internal/services"
	"ewscli/internal/store"
	"ewscli/internal/validation"
)

// options are the persistent flags shared by every subcommand
type options struct {
	configPath string
	baseDir    string
	store      bool
	years      string
	level      string
	sheet      string
	workers    int
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "ewsprep",
		Short:        "Prepare CDE school climate exports",
		Long:         "ewsprep parses CDE CalSCHLS exports into tidy records and the region-level climate index.",
		SilenceUsage: true,
		// every invocation logs under one trace ID
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(infrastructure.EnsureTraceID(cmd.Context()))
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config.yaml (default: search the usual locations)")
	flags.StringVar(&opts.baseDir, "base-dir", "", "Base directory that relative paths resolve against")
	flags.BoolVar(&opts.store, "store", false, "Persist each run to the configured result store")
	flags.StringVar(&opts.years, "years", "", "Years label for grade exports (overrides pipeline.years)")
	flags.StringVar(&opts.level, "level", "", "Level filter label for grade exports (overrides pipeline.level_filter)")
	flags.StringVar(&opts.sheet, "sheet", "", "Workbook sheet of connectedness exports (default: first sheet)")
	flags.IntVar(&opts.workers, "workers", 0, "Files processed in parallel by batch (overrides pipeline.workers)")

	root.AddCommand(newFileCmd(opts, "grade", "Process a grade-stratified text export"))
	root.AddCommand(newFileCmd(opts, "connectedness", "Process a connectedness workbook and its composite index"))
	root.AddCommand(newBatchCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// session is what a subcommand needs; close releases the store and log sink
type session struct {
	service    *services.SafetyService
	validator  *validation.FileValidator
	opts       services.ProcessOptions
	exportsDir string
	close      func()
}

func (o *options) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.baseDir != "" {
		cfg.Paths.BaseDir = o.baseDir
	}
	if o.years != "" {
		cfg.Pipeline.Years = o.years
	}
	if o.level != "" {
		cfg.Pipeline.LevelFilter = o.level
	}
	if o.workers > 0 {
		cfg.Pipeline.Workers = o.workers
	}
	return cfg, nil
}

func (o *options) setup(ctx context.Context) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, logSink, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = infrastructure.WithComponent(logger, "ewsprep")

	rt, err := o.open(ctx, cfg, logger)
	if err != nil {
		logSink.Close()
		return nil, err
	}
	closeStore := rt.close
	rt.close = func() {
		if closeStore != nil {
			closeStore()
		}
		logSink.Close()
	}
	return rt, nil
}

// open builds the session; its close releases only the store
func (o *options) open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*session, error) {
	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	rt := &session{
		validator:  validation.NewFileValidator(logger),
		exportsDir: paths.ExportsDir,
	}
	if err := rt.validator.ValidateOutputDirectory(paths.ReportsDir); err != nil {
		return nil, err
	}

	var rs services.ResultStore
	if o.store {
		var st *store.Store
		if st, err = app.OpenStore(ctx, cfg.Store, paths, logger); err != nil {
			return nil, err
		}
		rs = st
		rt.close = func() { st.Close() }
	}

	rt.service = services.NewSafetyService(cfg.Pipeline, paths, rs, nil, logger)
	rt.opts = services.ProcessOptions{
		Grade:   rt.service.GradeOptions("", ""),
		Sheet:   o.sheet,
		Export:  true,
		Persist: o.store,
	}
	return rt, nil
}

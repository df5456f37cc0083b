package main

import (
	"fmt"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/askiada/geo-pipeline/internal/geo"
	"github.com/askiada/geo-pipeline/internal/logging"
	"github.com/askiada/geo-pipeline/pkg/pipeline"
	"github.com/askiada/geo-pipeline/pkg/pipeline/drawer"
	"github.com/askiada/geo-pipeline/pkg/pipeline/measure"
	"github.com/askiada/geo-pipeline/pkg/pipeline/model"
)

func run(cfg *RunConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Run.Parse(cc, args)
	if err != nil {
		return err
	}
	tgt, err := target("run", args)
	if err != nil {
		return err
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: -workers must be positive", cli.ErrUsage)
	}

	conf, err := loadConfig(overrides{
		file:    cfg.File,
		dataset: cfg.Dataset,
		root:    cfg.Root,
		workers: cfg.Workers,
		verbose: cfg.Verbose,
	})
	if err != nil {
		return err
	}

	logger, runID := logging.ForRun(logging.New(os.Stderr, conf.Logging.Level, conf.Logging.Format), conf.Dataset)

	opts := []model.PipelineOption{}
	if cfg.Graph != "" {
		msr := measure.NewDefaultMeasure()
		opts = append(opts,
			measure.PipelineMeasure(msr),
			drawer.PipelineDrawer(drawer.NewDOTDrawer(cfg.Graph), msr))
	}

	pipe, err := pipeline.New(logger, opts...)
	if err != nil {
		return fmt.Errorf("error creating pipeline: %w", err)
	}
	if err := geo.Register(pipe, conf, logger); err != nil {
		return fmt.Errorf("error registering stages: %w", err)
	}

	runOpts := []pipeline.RunOption{}
	if cfg.Force {
		runOpts = append(runOpts, pipeline.ForceAll())
	}

	ctx, stop := interruptible()
	defer stop()

	logger.Info("starting pipeline", "target", tgt, "root", conf.Root)
	report, err := pipe.Run(ctx, tgt, runOpts...)
	if report != nil && len(report.Tasks) > 0 {
		newSummary(cc.Out).write(report)
	}
	if err != nil {
		return fmt.Errorf("run %s failed: %w", runID, err)
	}

	logger.Info("pipeline done", "target", tgt, "elapsed", report.Elapsed)
	return nil
}

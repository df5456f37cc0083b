package main

import (
	"fmt"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/askiada/geo-pipeline/internal/geo"
	"github.com/askiada/geo-pipeline/internal/logging"
	"github.com/askiada/geo-pipeline/pkg/pipeline"
)

func plan(cfg *PlanConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Plan.Parse(cc, args)
	if err != nil {
		return err
	}
	tgt, err := target("plan", args)
	if err != nil {
		return err
	}

	conf, err := loadConfig(overrides{
		file:    cfg.File,
		dataset: cfg.Dataset,
		root:    cfg.Root,
		verbose: cfg.Verbose,
	})
	if err != nil {
		return err
	}

	logger, _ := logging.ForRun(logging.New(os.Stderr, conf.Logging.Level, conf.Logging.Format), conf.Dataset)

	pipe, err := pipeline.New(logger)
	if err != nil {
		return fmt.Errorf("error creating pipeline: %w", err)
	}
	if err := geo.Register(pipe, conf, logger); err != nil {
		return fmt.Errorf("error registering stages: %w", err)
	}

	infos, err := pipe.Plan(tgt)
	if err != nil {
		return err
	}

	s := newSummary(cc.Out)
	for _, info := range infos {
		s.task(info.Name, info.State)
	}
	return nil
}

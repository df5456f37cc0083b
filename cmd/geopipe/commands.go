package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}

	return cli.NewCommandAt(&cfg.Main, "geopipe").
		WithSynopsis("geopipe [opts] command [opts]").
		WithDescription("geopipe downloads a GEO dataset and turns it into trimmed tab separated tables.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return geopipeMain(cfg, cc, args)
		}).
		WithSubs(
			RunCommand(cfg),
			PlanCommand(cfg),
			StagesCommand(cfg))
}

func RunCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &RunConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}

	return cli.NewCommandAt(&cfg.Run, "run").
		WithAliases("r").
		WithSynopsis("run [-dataset id] [-root dir] [-config file] [-graph file.dot] [-workers n] [-force] [target]").
		WithDescription(runDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return run(cfg, cc, args)
		})
}

const runDescription = `run builds the target task, running first every task it depends on whose
outputs are missing. The target defaults to clean, the last stage.

A task whose outputs all exist is complete: neither it nor the tasks it depends on
are run again.`

func PlanCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &PlanConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}

	return cli.NewCommandAt(&cfg.Plan, "plan").
		WithAliases("p").
		WithSynopsis("plan [-dataset id] [-root dir] [-config file] [target]").
		WithDescription("plan lists the tasks run would visit, and whether they would run.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return plan(cfg, cc, args)
		})
}

func StagesCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &StagesConfig{MainConfig: mainCfg}

	return cli.NewCommandAt(&cfg.Stages, "stages").
		WithSynopsis("stages").
		WithDescription("stages lists the task names, in execution order.").
		WithRun(func(cc *cli.Context, args []string) error {
			return stages(cfg, cc, args)
		})
}

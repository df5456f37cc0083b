package main

import (
	"github.com/scott-cotton/cli"

	"github.com/askiada/geo-pipeline/internal/config"
)

type MainConfig struct {
	Verbose bool `cli:"name=v aliases=verbose desc='log debug messages'"`

	Main *cli.Command
}

type RunConfig struct {
	*MainConfig

	Dataset string `cli:"name=dataset desc='accession of the dataset to process'"`
	Root    string `cli:"name=root desc='directory the dataset tree is created under'"`
	File    string `cli:"name=config desc='YAML configuration file'"`
	Workers int    `cli:"name=workers desc='files processed at once inside a stage'"`
	Graph   string `cli:"name=graph desc='write the task graph to this DOT file'"`
	Force   bool   `cli:"name=force desc='run every task leading to the target, even complete ones'"`

	Run *cli.Command
}

type PlanConfig struct {
	*MainConfig

	Dataset string `cli:"name=dataset desc='accession of the dataset to process'"`
	Root    string `cli:"name=root desc='directory the dataset tree is created under'"`
	File    string `cli:"name=config desc='YAML configuration file'"`

	Plan *cli.Command
}

type StagesConfig struct {
	*MainConfig

	Stages *cli.Command
}

// overrides holds the values given on the command line, which take precedence over the
// configuration file and the environment.
type overrides struct {
	file    string
	dataset string
	root    string
	workers int
	verbose bool
}

func loadConfig(o overrides) (*config.Config, error) {
	cfg, err := config.Load(o.file)
	if err != nil {
		return nil, err
	}

	if o.dataset != "" {
		cfg.Dataset = o.dataset
	}
	if o.root != "" {
		cfg.Root = o.root
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

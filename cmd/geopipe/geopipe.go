package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/scott-cotton/cli"

	"github.com/askiada/geo-pipeline/internal/geo"
)

func geopipeMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

// target returns the task named by the only argument, or the default target.
func target(cmd string, args []string) (string, error) {
	switch len(args) {
	case 0:
		return geo.DefaultTarget, nil
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("%w: %s takes at most one target", cli.ErrUsage, cmd)
	}
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func stages(cfg *StagesConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Stages.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: stages takes no argument", cli.ErrUsage)
	}
	for _, name := range geo.TaskNames() {
		fmt.Fprintln(cc.Out, name)
	}
	return nil
}

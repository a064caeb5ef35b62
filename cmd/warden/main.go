// warden is the operator CLI for statecraft. It grants platform
// administrators and drives the administrative war lifecycle, which has no
// player-facing entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"statecraft/pkg/app"
	"statecraft/pkg/version"

	"github.com/spf13/pflag"
	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		printUsage()
		return nil
	}
	if args[0] == "version" || args[0] == "--version" {
		fmt.Println(version.Get("warden").Details())
		return nil
	}

	cmd, ok := lookup(args[0])
	if !ok {
		printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}

	flags := pflag.NewFlagSet(cmd.name, pflag.ContinueOnError)
	inv := cmd.setup(flags)
	if err := flags.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if inv.validate != nil {
		if err := inv.validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if !cmd.longRunning {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Minute)
		defer cancel()
	}

	appCtx, err := app.InitializeApp(ctx, "statecraft-warden")
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer appCtx.Shutdown(context.Background())

	return inv.run(ctx, appCtx, os.Stdout)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: warden <command> [flags]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", "version", "Print build information")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Run 'warden <command> --help' for command flags.")
}

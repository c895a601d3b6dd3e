// ticketctl is the BlockFest marketplace client. It checks VIP status
// against blockfest-api, reads the event contracts, buys and resells
// tickets, and keeps a local journal of every submission.
//
// USAGE:
//
//	ticketctl [--env-file .env] [-v] <command> [flags] [args]
//
// Configuration comes from the environment (see config/.env.example).
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

	"github.com/spf13/pflag"

	"github.com/aanand-mishra/blockfest-backend/internal/config"
)

// env is what every command runs with.
type env struct {
	cfg    *config.Client
	logger *slog.Logger
	stdout io.Writer
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{"vip-check", "ask the API whether a buyer is on the VIP list", runVIPCheck},
	{"event", "show the event status and prices", runEvent},
	{"tickets", "list owned and issued tickets", runTickets},
	{"buy", "buy ticket <id> at the buyer's tier price", runBuy},
	{"resell", "sell ticket <id> back to the event", runResell},
	{"history", "list journaled submissions, newest first", runHistory},
	{"reconcile", "settle journaled submissions whose outcome is unknown", runReconcile},
	{"registry", "offline helpers for a VIP list file (lint, lookup)", runRegistry},
	{"token", "mint a development credential (hmac mode)", runToken},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		envFile string
		verbose bool
	)
	flagSet := pflag.NewFlagSet("ticketctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&envFile, "env-file", ".env", "dotenv file merged into the environment")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stderr, flagSet)
		return pflag.ErrHelp
	}

	cfg, err := config.LoadClient(envFile)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	e := &env{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
		stdout: stdout,
	}

	for _, c := range commands {
		if c.name == rest[0] {
			return c.run(ctx, e, rest[1:])
		}
	}
	printHelp(stderr, flagSet)
	return fmt.Errorf("unknown command %q", rest[0])
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "ticketctl: BlockFest marketplace client.\n\nUsage:\n  ticketctl [flags] <command> [command flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nFlags:\n%s", flagSet.FlagUsages())
}

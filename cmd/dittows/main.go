// dittows drives a persisted project workspace from the command line.
//
// Every invocation loads the workspace from the configured blob store,
// applies a single intent (create a file, edit it, delete a selection,
// run the active file, ...) and exits. Changes are written back through
// the persistence gateway before the process ends, so consecutive
// invocations observe each other's edits.
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

	"github.com/marmos91/dittows/internal/logger"
	"github.com/marmos91/dittows/pkg/config"
	"github.com/marmos91/dittows/pkg/workspace"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// env is what a command handler gets to work with.
type env struct {
	ws      *workspace.Workspace
	cfg     *config.Config
	metrics *config.MetricsResult
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var configPath string
	var logLevel string

	flagSet := pflag.NewFlagSet("dittows", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $XDG_CONFIG_HOME/dittows/config.yaml)")
	flagSet.StringVar(&logLevel, "log-level", "", "override the configured log level (DEBUG, INFO, WARN, ERROR)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}

	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 || rest[0] == "help" {
		printHelp(stderr, flagSet)
		return nil
	}

	name, cmdArgs := rest[0], rest[1:]

	// init writes the config file and must work before one exists.
	if name == "init" {
		return runInit(configPath, cmdArgs, stdout, stderr)
	}

	cmd, ok := lookupCommand(name)
	if !ok {
		return fmt.Errorf("unknown command %q (run 'dittows help' for a list)", name)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}

	metricsResult := config.InitializeMetrics(cfg)

	blobs, err := config.CreateBlobStore(ctx, &cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to create blob store: %w", err)
	}
	defer func() {
		if err := blobs.Close(); err != nil {
			logger.Warn("Failed to close blob store: %v", err)
		}
	}()

	gw, err := config.CreateGateway(blobs, cfg, metricsResult.Workspace)
	if err != nil {
		return fmt.Errorf("failed to create persistence gateway: %w", err)
	}

	ws, err := workspace.Open(ctx, gw, config.WorkspaceOptions(cfg, metricsResult.Workspace))
	if err != nil {
		return fmt.Errorf("failed to open workspace: %w", err)
	}
	defer func() { _ = ws.Close() }()

	logger.Debug("Running command %s with %d argument(s)", name, len(cmdArgs))

	return cmd.run(ctx, &env{
		ws:      ws,
		cfg:     cfg,
		metrics: metricsResult,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
	}, cmdArgs)
}

func runInit(configPath string, args []string, stdout, stderr io.Writer) error {
	var force bool

	flagSet := pflag.NewFlagSet("dittows init", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.BoolVar(&force, "force", false, "overwrite an existing config file")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	if configPath == "" {
		path, err := config.InitConfig(force)
		if err != nil {
			return err
		}
		configPath = path
	} else if err := config.InitConfigAt(configPath, force); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Configuration written to %s\n", configPath)
	return nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `dittows - persisted project workspace

Each invocation loads the workspace from the configured store, applies
one command and saves the result.

Usage:
  dittows [flags] <command> [arguments]

Commands:
  init [--force]              write a default config file
`)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-27s %s\n", c.usage, c.summary)
	}
	fmt.Fprintf(w, "\nFlags:\n%s", flagSet.FlagUsages())
}

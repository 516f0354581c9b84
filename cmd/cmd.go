package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"
	"github.com/webitel/checkin-notifier/config"
)

const (
	ServiceName = "checkin-notifier"

	stopTimeout = 15 * time.Second
)

var (
	version        = "0.0.0"
	commit         = "hash"
	commitDate     = time.Now().String()
	branch         = "branch"
	buildTimestamp = ""
)

func Run() error {
	return NewCLI().Run(os.Args)
}

func NewCLI() *cli.App {
	return &cli.App{
		Name:  ServiceName,
		Usage: "Streams check-in events and raises classified notifications",
		Commands: []*cli.Command{
			runCmd(),
			versionCmd(),
		},
	}
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Connect to the check-in stream and deliver notifications",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config_file",
				Usage:   "Path to the configuration file",
				EnvVars: []string{"CHECKIN_CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:  config.FlagEndpoint,
				Usage: "WebSocket endpoint of the check-in stream",
			},
			&cli.StringFlag{
				Name:  config.FlagLogLevel,
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Action: func(c *cli.Context) error {
			flags, err := overrideFlags(c)
			if err != nil {
				return err
			}
			loader, err := config.NewLoader(c.String("config_file"), flags)
			if err != nil {
				return err
			}
			cfg, err := loader.Load()
			if err != nil {
				return err
			}

			app := NewApp(cfg, loader)
			if err := app.Err(); err != nil {
				return err
			}
			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			return app.Stop(ctx)
		},
	}
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(c *cli.Context) error {
			_, err := fmt.Fprintf(c.App.Writer, "%s %s (commit %s, branch %s, date %s, built %s)\n",
				ServiceName, version, commit, branch, commitDate, buildTimestamp)
			return err
		},
	}
}

// overrideFlags copies the flags the user actually set into a pflag set
// the config loader binds, so unset flags never shadow file or env values.
func overrideFlags(c *cli.Context) (*pflag.FlagSet, error) {
	fs := config.NewFlagSet()
	for _, name := range []string{config.FlagEndpoint, config.FlagLogLevel} {
		if !c.IsSet(name) {
			continue
		}
		if err := fs.Set(name, c.String(name)); err != nil {
			return nil, fmt.Errorf("flag %s: %w", name, err)
		}
	}
	return fs, nil
}

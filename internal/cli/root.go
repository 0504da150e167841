// Package cli implements stockctl, the branch stock editor.
package cli

import (
	"context"
	"os"
	"time"

	"gochicken/internal/client"
	"gochicken/pkg/config"
	"gochicken/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type options struct {
	apiURL        string
	operator      string
	timeout       time.Duration
	commitTimeout time.Duration
	logLevel      string
}

// NewRootCmd builds the stockctl command tree. Flag defaults come from the environment.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	opts := &options{
		apiURL:        cfg.Client.BaseURL,
		operator:      os.Getenv("USER"),
		timeout:       cfg.Client.Timeout,
		commitTimeout: cfg.Client.CommitTimeout,
		logLevel:      "warn",
	}

	root := &cobra.Command{
		Use:           "stockctl",
		Short:         "Inspect and edit GoChicken branch stock",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", opts.apiURL, "stock API base URL")
	root.PersistentFlags().StringVar(&opts.operator, "operator", opts.operator, "name recorded on stock movements")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", opts.timeout, "per-request timeout")
	root.PersistentFlags().DurationVar(&opts.commitTimeout, "commit-timeout", opts.commitTimeout, "overall deadline for one commit")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "trace, debug, info, warn, error")

	root.AddCommand(newBranchesCmd(opts), newStocksCmd(opts), newEditCmd(opts))
	return root
}

// Execute runs stockctl with process args.
func Execute() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return NewRootCmd(cfg).ExecuteContext(context.Background())
}

func (o *options) client() *client.Client {
	return client.New(o.apiURL, client.WithTimeout(o.timeout), client.WithOperator(o.operator))
}

func (o *options) logger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(logger.ParseLevel(o.logLevel)).
		With().Timestamp().Logger()
}

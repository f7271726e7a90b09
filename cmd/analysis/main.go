// Command analysis inspects bloom filter sizing and measures false positive
// rates of the hash families in github.com/jcalabro/bloom.
package main

import (
	"fmt"
	"os"

	"github.com/jcalabro/bloom"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	verbose bool
	log     *zap.Logger
}

// newRootCmd builds the command tree. A nil logger is built from the
// --verbose flag once flags are parsed.
func newRootCmd(log *zap.Logger) *cobra.Command {
	a := &app{log: log}

	root := &cobra.Command{
		Use:          "analysis",
		Short:        "inspect bloom filter sizing and false positive behaviour",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.log != nil {
				return nil
			}
			l, err := newLogger(a.verbose)
			if err != nil {
				return fmt.Errorf("building logger: %w", err)
			}
			a.log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.newParamsCmd(),
		a.newFPRateCmd(),
		a.newTraceCmd(),
		a.newCorrelateCmd(),
	)

	return root
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// familyByName resolves the --family flag.
func familyByName(name string) (bloom.Family[string], error) {
	switch name {
	case "xxh3":
		return bloom.XXH3[string](), nil
	case "murmur3":
		return bloom.Murmur3[string](), nil
	default:
		return nil, fmt.Errorf("unknown hash family %q (want xxh3 or murmur3)", name)
	}
}

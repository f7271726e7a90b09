package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jcalabro/bloom"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) newParamsCmd() *cobra.Command {
	var (
		n uint64
		p float64
	)

	c := &cobra.Command{
		Use:   "params",
		Short: "print the optimal bit count and hash function count for n items at rate p",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, k, err := bloom.OptimalParams(n, p)
			if err != nil {
				return err
			}
			a.log.Debug("computed parameters", zap.Uint64("n", n), zap.Float64("p", p), zap.Uint64("m", m), zap.Uint32("k", k))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "items:         %d\n", n)
			fmt.Fprintf(out, "target rate:   %g\n", p)
			fmt.Fprintf(out, "bits (m):      %d\n", m)
			fmt.Fprintf(out, "hashes (k):    %d\n", k)
			fmt.Fprintf(out, "bits per item: %.2f\n", bloom.BitsPerItem(p))
			fmt.Fprintf(out, "memory:        %s\n", humanize.Bytes((m+7)/8))
			return nil
		},
	}

	c.Flags().Uint64VarP(&n, "items", "n", 1000, "expected number of items")
	c.Flags().Float64VarP(&p, "rate", "p", 0.01, "desired false positive rate")
	return c
}

package main

import (
	"fmt"

	"github.com/jcalabro/bloom"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// fpResult is the outcome of one empirical false positive measurement.
type fpResult struct {
	M              uint64
	K              uint32
	Inserted       uint64
	Trials         uint64
	FalsePositives uint64
	Target         float64
	Estimate       float64
}

// Rate is the measured false positive rate.
func (r fpResult) Rate() float64 {
	if r.Trials == 0 {
		return 0
	}
	return float64(r.FalsePositives) / float64(r.Trials)
}

// measure sizes a filter for n items at rate p, inserts key(0..n-1) and
// queries key(n..n+trials-1), none of which were inserted.
func measure(log *zap.Logger, n uint64, p float64, trials uint64, family bloom.Family[string], key func(uint64) string) (fpResult, error) {
	f, err := bloom.NewWithEstimates(n, p, family)
	if err != nil {
		return fpResult{}, err
	}
	log.Debug("filter sized", zap.Uint64("m", f.Cap()), zap.Uint32("k", f.K()))

	for i := range n {
		if err := f.Insert(key(i)); err != nil {
			return fpResult{}, fmt.Errorf("inserting item %d: %w", i, err)
		}
	}

	res := fpResult{
		M:        f.Cap(),
		K:        f.K(),
		Inserted: n,
		Trials:   trials,
		Target:   p,
		Estimate: f.EstimatedFalsePositiveRate(),
	}
	for i := range trials {
		ok, err := f.MightContain(key(n + i))
		if err != nil {
			return fpResult{}, fmt.Errorf("querying trial %d: %w", i, err)
		}
		if ok {
			res.FalsePositives++
		}
	}

	log.Debug("measurement done",
		zap.Uint64("false_positives", res.FalsePositives),
		zap.Float64("fill_ratio", f.EstimatedFillRatio()),
	)
	return res, nil
}

func printResult(cmd *cobra.Command, label string, r fpResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "%-10s m=%d k=%d inserted=%d trials=%d false_positives=%d rate=%.4f target=%.4f estimate=%.4f\n",
		label, r.M, r.K, r.Inserted, r.Trials, r.FalsePositives, r.Rate(), r.Target, r.Estimate)
}

func (a *app) newFPRateCmd() *cobra.Command {
	var (
		n          uint64
		p          float64
		trials     uint64
		familyName string
	)

	c := &cobra.Command{
		Use:   "fprate",
		Short: "measure the empirical false positive rate of a filter sized for n items at rate p",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := familyByName(familyName)
			if err != nil {
				return err
			}

			res, err := measure(a.log, n, p, trials, family, func(i uint64) string {
				return fmt.Sprintf("key-%d", i)
			})
			if err != nil {
				return err
			}

			printResult(cmd, familyName, res)
			if res.Rate() > 2*p {
				a.log.Warn("false positive rate exceeds twice the target",
					zap.String("family", familyName),
					zap.Float64("rate", res.Rate()),
					zap.Float64("target", p),
				)
			}
			return nil
		},
	}

	c.Flags().Uint64VarP(&n, "items", "n", 10000, "number of items to insert")
	c.Flags().Float64VarP(&p, "rate", "p", 0.01, "target false positive rate")
	c.Flags().Uint64Var(&trials, "trials", 100000, "number of absent items to query")
	c.Flags().StringVar(&familyName, "family", "xxh3", "hash family: xxh3 or murmur3")
	return c
}

package main

import (
	"fmt"

	"github.com/jcalabro/bloom"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	// runeBase is the first codepoint used as an element. It sits above the
	// surrogate range so every key up to maxRune is a valid rune.
	runeBase = 0x10000
	maxRune  = 0x10FFFF
)

type correlation struct {
	Additive fpResult
	Hashed   fpResult
}

// correlate measures the same single-rune workload against the additive
// codepoint family and the xxh3 family.
func correlate(log *zap.Logger, n uint64, p float64, trials, step uint64) (correlation, error) {
	const runes = maxRune - runeBase + 1
	if n > runes || trials > runes-n {
		return correlation{}, fmt.Errorf("n+trials must not exceed %d single-rune elements", runes)
	}
	key := func(i uint64) string {
		return string(rune(runeBase + i))
	}

	additive, err := measure(log.With(zap.String("family", "additive")), n, p, trials, bloom.AdditiveOffsets(step), key)
	if err != nil {
		return correlation{}, err
	}
	hashed, err := measure(log.With(zap.String("family", "xxh3")), n, p, trials, bloom.XXH3[string](), key)
	if err != nil {
		return correlation{}, err
	}
	return correlation{Additive: additive, Hashed: hashed}, nil
}

func (a *app) newCorrelateCmd() *cobra.Command {
	var (
		n      uint64
		p      float64
		trials uint64
		step   uint64
	)

	c := &cobra.Command{
		Use:   "correlate",
		Short: "compare codepoint+offset hashing with xxh3 double hashing on consecutive runes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := correlate(a.log, n, p, trials, step)
			if err != nil {
				return err
			}

			printResult(cmd, "additive", res.Additive)
			printResult(cmd, "xxh3", res.Hashed)
			a.log.Info("correlation measured",
				zap.Float64("additive_rate", res.Additive.Rate()),
				zap.Float64("xxh3_rate", res.Hashed.Rate()),
				zap.Float64("target", p),
			)
			return nil
		},
	}

	c.Flags().Uint64VarP(&n, "items", "n", 1000, "number of runes to insert")
	c.Flags().Float64VarP(&p, "rate", "p", 0.01, "target false positive rate")
	c.Flags().Uint64Var(&trials, "trials", 20000, "number of absent runes to query")
	c.Flags().Uint64Var(&step, "step", 2, "offset between consecutive additive hash functions")
	return c
}

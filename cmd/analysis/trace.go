package main

import (
	"fmt"

	"github.com/jcalabro/bloom"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var defaultTraceElements = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}

type traceEntry struct {
	Element string
	Report  bloom.Report
}

// trace inserts each element in order and records what every insertion
// found in the bit array.
func trace(log *zap.Logger, f *bloom.Filter[string], elems []string) ([]traceEntry, error) {
	entries := make([]traceEntry, 0, len(elems))
	for _, e := range elems {
		rep, err := f.InsertWithReport(e)
		if err != nil {
			return entries, fmt.Errorf("inserting %q: %w", e, err)
		}
		log.Info("inserted",
			zap.String("element", e),
			zap.Uint64s("indices", rep.Indices),
			zap.Bools("already_set", rep.WasSet),
			zap.Int("newly_set", rep.NewlySet()),
			zap.Bool("might_already_be_stored", rep.AlreadyPresent()),
		)
		entries = append(entries, traceEntry{Element: e, Report: rep})
	}
	return entries, nil
}

func (a *app) newTraceCmd() *cobra.Command {
	var (
		m    uint64
		k    uint32
		step uint64
	)

	c := &cobra.Command{
		Use:   "trace [element...]",
		Short: "insert single-rune elements into a codepoint+offset filter and report each insertion",
		RunE: func(cmd *cobra.Command, args []string) error {
			elems := args
			if len(elems) == 0 {
				elems = defaultTraceElements
			}

			f, err := bloom.New(m, bloom.AdditiveOffsets(step)(k)...)
			if err != nil {
				return err
			}

			entries, err := trace(a.log, f, elems)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				verdict := "definitely not stored before"
				if e.Report.AlreadyPresent() {
					verdict = "might already be stored"
				}
				fmt.Fprintf(out, "%s: indices %v, %s\n", e.Element, e.Report.Indices, verdict)
			}
			fmt.Fprintf(out, "fill ratio %.2f after %d insertions\n", f.EstimatedFillRatio(), f.Count())
			return nil
		},
	}

	c.Flags().Uint64Var(&m, "bits", 5, "number of bits in the filter")
	c.Flags().Uint32Var(&k, "k", 3, "number of hash functions")
	c.Flags().Uint64Var(&step, "step", 2, "offset between consecutive hash functions")
	return c
}

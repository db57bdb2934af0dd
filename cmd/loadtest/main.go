package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &Config{}
	var output string

	cmd := &cobra.Command{
		Use:          "loadtest",
		Short:        "Drive stake, enter, add-fee and claim traffic through a rewards gateway",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Concurrency < 1 || cfg.Participants < 1 || cfg.FeeAmount == 0 {
				return errors.New("workers, participants and fee must be positive")
			}
			logger := log.NewLogger(cmd.OutOrStdout())

			results, err := NewLoadTester(cfg, logger).Run()
			if err != nil {
				return err
			}
			summary := results.Summary()
			logger.Info("Load test finished", "summary", summary["summary"], "latency", summary["latency"])

			if output != "" {
				if err := results.SaveReport(output); err != nil {
					return fmt.Errorf("failed to save report: %w", err)
				}
				logger.Info("Report saved", "file", output)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "Gateway base URL")
	f.IntVarP(&cfg.Concurrency, "workers", "c", 20, "Number of concurrent workers")
	f.DurationVarP(&cfg.Duration, "duration", "d", 60*time.Second, "Test duration")
	f.DurationVar(&cfg.RampUp, "ramp", 5*time.Second, "Ramp-up time")
	f.IntVar(&cfg.Participants, "participants", 10, "Participants owned by each worker")
	f.Uint64Var(&cfg.FeeAmount, "fee", 1000, "Fee paid per add-fee")
	f.Float64Var(&cfg.FeeRatio, "fee-ratio", 0.2, "Share of iterations that pay a fee")
	f.StringVarP(&output, "output", "o", "", "Write a JSON report to this file")
	return cmd
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/homevolt/dayahead/config"
	"github.com/homevolt/dayahead/infra/logger"
	"github.com/homevolt/dayahead/pricing"
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Fetch and print the day-ahead quarter price curve",
	RunE:  fetchPrices,
}

func init() {
	rootCmd.AddCommand(pricesCmd)
}

func fetchPrices(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	date := time.Now()
	if cfg.TargetDate != "" {
		date, err = time.Parse("2006-01-02", cfg.TargetDate)
		if err != nil {
			return fmt.Errorf("parse target_date: %w", err)
		}
	}

	client := pricing.NewClient(cfg.Pricing, logger.New("pricing"))
	prices, err := client.QuarterPrices(ctx, date)
	if err != nil {
		return err
	}

	times := make([]string, 0, len(prices))
	for ts := range prices {
		times = append(times, ts)
	}
	sort.Strings(times)
	for _, ts := range times {
		fmt.Printf("%s  %7.2f oere/kWh\n", ts, prices[ts])
	}
	return nil
}

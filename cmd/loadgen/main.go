package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/verdantquest/questboard/internal/loadgen"
	"github.com/verdantquest/questboard/pkg/logger"
)

const runTimeout = 10 * time.Minute

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:8080", "Base URL of the service")
		numAwards = flag.Int("awards", loadgen.DefaultNumAwards, "Number of awards to submit")
		members   = flag.Int("members", loadgen.DefaultMembers, "Size of the synthetic member pool")
		workers   = flag.Int("workers", 0, "Concurrent submitters (0 = 2x CPUs)")
		timeout   = flag.Duration("timeout", loadgen.DefaultTimeout, "HTTP request timeout")
		dupRate   = flag.Float64("dup-rate", loadgen.DefaultDuplicateRate, "Fraction of requests reusing a proof id")
		topN      = flag.Int("top", loadgen.DefaultTopN, "Leaderboard rows to fetch at the end")
		verbose   = flag.Bool("verbose", false, "Log every request")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := &loadgen.Config{
		BaseURL:       *baseURL,
		NumAwards:     *numAwards,
		Members:       *members,
		Workers:       *workers,
		Timeout:       *timeout,
		DuplicateRate: *dupRate,
		TopN:          *topN,
		Verbose:       *verbose,
	}

	if _, err := loadgen.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("load generation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/verdantquest/questboard/internal/domain/model"
	"github.com/verdantquest/questboard/pkg/logger"
)

// Run generates awards, submits them concurrently, and prints the
// resulting top of the global leaderboard.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	applyDefaults(cfg)
	log := logger.Get().Named("loadgen")

	awards := generate(cfg)
	log.Info(ctx, "generated award batch",
		logger.Int("awards", len(awards)),
		logger.Int("members", cfg.Members),
		logger.Int("workers", cfg.Workers),
	)

	start := time.Now()
	stats := submit(ctx, cfg, awards, log)
	stats.Generated = len(awards)
	stats.Elapsed = time.Since(start)

	log.Info(ctx, "submission finished",
		logger.Int("submitted", stats.Submitted),
		logger.Int("successful", stats.Successful),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.String("elapsed", stats.Elapsed.String()),
	)

	if err := printTop(ctx, cfg, log); err != nil {
		return stats, err
	}
	return stats, nil
}

func applyDefaults(cfg *Config) {
	if cfg.NumAwards < 1 {
		cfg.NumAwards = DefaultNumAwards
	}
	if cfg.Members < 1 {
		cfg.Members = DefaultMembers
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU() * 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.TopN < 1 {
		cfg.TopN = DefaultTopN
	}
	if cfg.DuplicateRate < 0 || cfg.DuplicateRate >= 1 {
		cfg.DuplicateRate = DefaultDuplicateRate
	}
}

func submit(ctx context.Context, cfg *Config, awards []awardRequest, log logger.Logger) *Stats {
	client := &http.Client{Timeout: cfg.Timeout}
	url := cfg.BaseURL + "/award"

	var successful, duplicate, failed, submitted int64

	requests := make(chan awardRequest, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range requests {
				select {
				case <-ctx.Done():
					return
				default:
				}

				result := submitOne(ctx, client, url, req)
				atomic.AddInt64(&submitted, 1)
				switch result {
				case "ok":
					atomic.AddInt64(&successful, 1)
				case "duplicate":
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}

				if cfg.Verbose {
					log.Debug(ctx, "submitted award",
						logger.String("memberID", req.MemberID),
						logger.String("questID", req.QuestID),
						logger.String("result", result),
					)
				}
			}
		}()
	}

	go func() {
		defer close(requests)
		for _, a := range awards {
			select {
			case <-ctx.Done():
				return
			case requests <- a:
			}
		}
	}()

	wg.Wait()

	return &Stats{
		Submitted:  int(atomic.LoadInt64(&submitted)),
		Successful: int(atomic.LoadInt64(&successful)),
		Duplicate:  int(atomic.LoadInt64(&duplicate)),
		Failed:     int(atomic.LoadInt64(&failed)),
	}
}

func submitOne(ctx context.Context, client *http.Client, url string, award awardRequest) string {
	payload, err := json.Marshal(award)
	if err != nil {
		return "failed"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "failed"
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "failed"
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		return "failed"
	}

	var ack struct {
		Status    string `json:"status"`
		Duplicate bool   `json:"duplicate"`
	}
	if err := json.Unmarshal(body, &ack); err != nil {
		return "failed"
	}
	if ack.Duplicate {
		return "duplicate"
	}
	return "ok"
}

func printTop(ctx context.Context, cfg *Config, log logger.Logger) error {
	client := &http.Client{Timeout: cfg.Timeout}
	url := cfg.BaseURL + "/leaderboard/global?limit=" + strconv.Itoa(cfg.TopN)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build leaderboard request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch leaderboard: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch leaderboard: unexpected status %d", resp.StatusCode)
	}

	var rows []model.BoardRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return fmt.Errorf("decode leaderboard: %w", err)
	}

	for _, row := range rows {
		log.Info(ctx, "leaderboard row",
			logger.Int("rank", row.Rank),
			logger.String("memberID", row.MemberID),
			logger.String("name", row.Name),
			logger.Int64("xp", row.XP),
		)
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/verdantquest/questboard/internal/adapters/http/api"
	"github.com/verdantquest/questboard/internal/adapters/http/site"
	app "github.com/verdantquest/questboard/internal/app"
	"github.com/verdantquest/questboard/internal/config"
	"github.com/verdantquest/questboard/internal/domain/model"
	"github.com/verdantquest/questboard/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

func TestConfigurationLoading(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			_ = os.Setenv("QUESTBOARD_ADDR", ":8081")
			_ = os.Setenv("QUESTBOARD_QUEUE_SIZE", "1000")
			_ = os.Setenv("QUESTBOARD_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("QUESTBOARD_ADDR")
				_ = os.Unsetenv("QUESTBOARD_QUEUE_SIZE")
				_ = os.Unsetenv("QUESTBOARD_WORKER_COUNT")
			}()

			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
		})

		convey.Convey("When testing the metrics updaters", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
		})

		convey.Convey("When inspecting the stock quest catalog", func() {
			quests := defaultQuests()
			convey.So(quests, convey.ShouldNotBeEmpty)
			for _, q := range quests {
				convey.So(q.ID, convey.ShouldNotBeBlank)
				convey.So(q.XP, convey.ShouldBeGreaterThan, 0)
				convey.So(q.Active, convey.ShouldBeTrue)
			}
		})
	})
}

func TestFullStack(t *testing.T) {
	convey.Convey("Given the fully wired application", t, func() {
		ctx := context.Background()

		svc := app.New(app.WithWorkerCount(1))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		convey.So(svc.SeedQuests(ctx, defaultQuests()), convey.ShouldBeNil)

		mux := http.NewServeMux()
		site.Register(ctx, mux)
		api.NewServer(svc, svc).Register(ctx, mux)

		srv := httptest.NewServer(mux)
		defer srv.Close()

		convey.Convey("An award round-trips through HTTP", func() {
			resp, err := http.Post(srv.URL+"/award", "application/json",
				strings.NewReader(`{"member_id":"maya","quest_id":"plant-a-tree","proof_id":"it-1"}`))
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			var ack struct {
				Status     string `json:"status"`
				NewTotalXP int64  `json:"new_total_xp"`
			}
			convey.So(json.NewDecoder(resp.Body).Decode(&ack), convey.ShouldBeNil)
			convey.So(ack.Status, convey.ShouldEqual, "ok")
			convey.So(ack.NewTotalXP, convey.ShouldEqual, 50)

			convey.Convey("And shows up on the global leaderboard", func() {
				resp, err := http.Get(srv.URL + "/leaderboard/global")
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

				var rows []model.BoardRow
				convey.So(json.NewDecoder(resp.Body).Decode(&rows), convey.ShouldBeNil)
				convey.So(rows, convey.ShouldHaveLength, 1)
				convey.So(rows[0].MemberID, convey.ShouldEqual, "maya")
				convey.So(rows[0].Name, convey.ShouldEqual, "Anonymous")
			})
		})

		convey.Convey("The live page is served at root", func() {
			resp, err := http.Get(srv.URL + "/")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(resp.Header.Get("Content-Type"), convey.ShouldContainSubstring, "text/html")
		})

		convey.Convey("Health serves the metrics registry", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})
	})
}

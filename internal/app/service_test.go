package service_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/verdantquest/questboard/internal/adapters/rankstore"
	"github.com/verdantquest/questboard/internal/adapters/record"
	service "github.com/verdantquest/questboard/internal/app"
	"github.com/verdantquest/questboard/internal/domain/award"
	"github.com/verdantquest/questboard/internal/domain/model"
	"github.com/verdantquest/questboard/internal/domain/scope"
	logging "github.com/verdantquest/questboard/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logging.Init()
	os.Exit(m.Run())
}

func startedService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	s := service.New(opts...)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

func seedQuest(t *testing.T, s *service.Service, id string, xp int64) {
	t.Helper()
	err := s.SeedQuests(context.Background(), []model.Quest{
		{ID: id, Title: id, XP: xp, Category: "recycling", Difficulty: "easy", Active: true},
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func TestServiceAwardFlow(t *testing.T) {
	convey.Convey("Given a started service with a seeded quest", t, func() {
		records := record.NewMemoryStore()
		s := startedService(t, service.WithRecordStore(records), service.WithWorkerCount(1))
		ctx := context.Background()
		seedQuest(t, s, "plant-a-tree", 50)

		convey.So(records.SaveMember(ctx, model.Member{
			ID: "maya", Name: "Maya", Email: "maya@example.com", City: "Seattle",
		}), convey.ShouldBeNil)

		convey.Convey("When a member completes the quest", func() {
			res, err := s.Award(ctx, "maya", "plant-a-tree")
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.NewTotalXP, convey.ShouldEqual, 50)
			convey.So(res.Streak, convey.ShouldEqual, 1)

			convey.Convey("Then the global leaderboard reflects the total", func() {
				rows, err := s.TopK(ctx, scope.Global(), 10)
				convey.So(err, convey.ShouldBeNil)
				convey.So(rows, convey.ShouldHaveLength, 1)
				convey.So(rows[0].Rank, convey.ShouldEqual, 1)
				convey.So(rows[0].MemberID, convey.ShouldEqual, "maya")
				convey.So(rows[0].Name, convey.ShouldEqual, "Maya")
				convey.So(rows[0].XP, convey.ShouldEqual, 50)
				convey.So(rows[0].City, convey.ShouldEqual, "Seattle")
			})

			convey.Convey("And the member's city board reflects it too", func() {
				seattle, err := scope.City("Seattle")
				convey.So(err, convey.ShouldBeNil)
				rows, err := s.TopK(ctx, seattle, 10)
				convey.So(err, convey.ShouldBeNil)
				convey.So(rows, convey.ShouldHaveLength, 1)
				convey.So(rows[0].MemberID, convey.ShouldEqual, "maya")
			})
		})
	})
}

func TestServiceUnknownMemberGetsPlaceholder(t *testing.T) {
	convey.Convey("Given an award for a member with no profile", t, func() {
		s := startedService(t, service.WithWorkerCount(1))
		ctx := context.Background()
		seedQuest(t, s, "bike-to-work", 30)

		_, err := s.Award(ctx, "stranger-7", "bike-to-work")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the leaderboard row carries the placeholder name", func() {
			rows, err := s.TopK(ctx, scope.Global(), 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(rows, convey.ShouldHaveLength, 1)
			convey.So(rows[0].Name, convey.ShouldEqual, "Anonymous")
		})
	})
}

func TestServiceRanksDescending(t *testing.T) {
	convey.Convey("Given several members with different totals", t, func() {
		s := startedService(t, service.WithWorkerCount(1))
		ctx := context.Background()
		seedQuest(t, s, "small", 10)
		seedQuest(t, s, "big", 80)

		_, err := s.Award(ctx, "liam", "small")
		convey.So(err, convey.ShouldBeNil)
		_, err = s.Award(ctx, "maya", "big")
		convey.So(err, convey.ShouldBeNil)
		_, err = s.Award(ctx, "ava", "small")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then rows come back in rank order with ties on id", func() {
			rows, err := s.TopK(ctx, scope.Global(), 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(rows, convey.ShouldHaveLength, 3)
			convey.So(rows[0].MemberID, convey.ShouldEqual, "maya")
			convey.So(rows[1].MemberID, convey.ShouldEqual, "ava")
			convey.So(rows[2].MemberID, convey.ShouldEqual, "liam")
			convey.So(rows[1].Rank, convey.ShouldEqual, 2)
			convey.So(rows[2].Rank, convey.ShouldEqual, 3)
		})
	})
}

func TestServiceRank(t *testing.T) {
	convey.Convey("Given a populated leaderboard", t, func() {
		records := record.NewMemoryStore()
		s := startedService(t, service.WithRecordStore(records), service.WithWorkerCount(1))
		ctx := context.Background()
		seedQuest(t, s, "small", 10)
		seedQuest(t, s, "big", 80)

		convey.So(records.SaveMember(ctx, model.Member{
			ID: "maya", Name: "Maya", City: "Seattle",
		}), convey.ShouldBeNil)

		_, err := s.Award(ctx, "liam", "big")
		convey.So(err, convey.ShouldBeNil)
		_, err = s.Award(ctx, "maya", "small")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then a member's global rank is enriched", func() {
			row, err := s.Rank(ctx, scope.Global(), "maya")
			convey.So(err, convey.ShouldBeNil)
			convey.So(row.Rank, convey.ShouldEqual, 2)
			convey.So(row.Name, convey.ShouldEqual, "Maya")
			convey.So(row.XP, convey.ShouldEqual, 10)
			convey.So(row.City, convey.ShouldEqual, "Seattle")
		})

		convey.Convey("And the city scope ranks independently", func() {
			seattle, err := scope.City("Seattle")
			convey.So(err, convey.ShouldBeNil)
			row, err := s.Rank(ctx, seattle, "maya")
			convey.So(err, convey.ShouldBeNil)
			convey.So(row.Rank, convey.ShouldEqual, 1)
		})

		convey.Convey("And an unknown member reports not found", func() {
			_, err := s.Rank(ctx, scope.Global(), "ghost")
			convey.So(errors.Is(err, rankstore.ErrNotFound), convey.ShouldBeTrue)
		})
	})
}

func TestServiceUnknownScopeIsEmpty(t *testing.T) {
	convey.Convey("Given a city no member belongs to", t, func() {
		s := startedService(t, service.WithWorkerCount(1))
		ctx := context.Background()

		nowhere, err := scope.City("Nowhere")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then its leaderboard is empty, not an error", func() {
			rows, err := s.TopK(ctx, nowhere, 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(rows, convey.ShouldBeEmpty)
		})
	})
}

func TestServiceAwardErrors(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		s := startedService(t, service.WithWorkerCount(1))
		ctx := context.Background()

		convey.Convey("An unknown quest surfaces as an error", func() {
			_, err := s.Award(ctx, "maya", "no-such-quest")
			convey.So(errors.Is(err, award.ErrQuestNotFound), convey.ShouldBeTrue)
		})

		convey.Convey("A blank member id fails validation", func() {
			_, err := s.Award(ctx, "", "whatever")
			convey.So(errors.Is(err, award.ErrValidation), convey.ShouldBeTrue)
		})
	})
}

func TestServiceProofDedupe(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		s := startedService(t, service.WithWorkerCount(1))
		ctx := context.Background()

		convey.Convey("The first sighting of a proof id is not a duplicate", func() {
			convey.So(s.SeenAndRecord(ctx, "proof-1"), convey.ShouldBeFalse)

			convey.Convey("The second sighting is", func() {
				convey.So(s.SeenAndRecord(ctx, "proof-1"), convey.ShouldBeTrue)
			})

			convey.Convey("Unrecord makes it fresh again", func() {
				s.Unrecord(ctx, "proof-1")
				convey.So(s.SeenAndRecord(ctx, "proof-1"), convey.ShouldBeFalse)
			})
		})
	})
}

func TestServiceCustomBadges(t *testing.T) {
	convey.Convey("Given a service with a custom badge table", t, func() {
		s := startedService(t,
			service.WithWorkerCount(1),
			service.WithBadges([]award.Badge{{Threshold: 20, Name: "Sprout"}}),
		)
		ctx := context.Background()
		seedQuest(t, s, "compost", 25)

		convey.Convey("When the threshold is crossed", func() {
			res, err := s.Award(ctx, "maya", "compost")
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.BadgesUnlocked, convey.ShouldResemble, []string{"Sprout"})
		})
	})
}

func TestServiceStats(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		s := startedService(t, service.WithWorkerCount(2), service.WithQueueSize(500))

		convey.Convey("Then stats report the live configuration", func() {
			stats := s.GetStats()
			convey.So(stats["started"], convey.ShouldBeTrue)
			convey.So(stats["workerCount"], convey.ShouldEqual, 2)
			convey.So(stats["queueSize"], convey.ShouldEqual, 500)
			convey.So(stats, convey.ShouldContainKey, "queueLength")
			convey.So(stats, convey.ShouldContainKey, "connections")
		})
	})
}

func TestServiceLifecycle(t *testing.T) {
	convey.Convey("Given a service", t, func() {
		s := service.New(service.WithWorkerCount(1))
		ctx := context.Background()

		convey.So(s.Start(ctx), convey.ShouldBeNil)

		convey.Convey("Start is idempotent", func() {
			convey.So(s.Start(ctx), convey.ShouldBeNil)
		})

		convey.Convey("Stop is idempotent", func() {
			s.Stop()
			s.Stop()
		})
	})
}

package record_test

import (
	"context"
	"testing"
	"time"

	"github.com/verdantquest/questboard/internal/adapters/record"
	"github.com/verdantquest/questboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty memory store", t, func() {
		store := record.NewMemoryStore()

		Convey("When looking up an unknown member", func() {
			_, err := store.FindMember(ctx, "ghost")

			Convey("Then it should return ErrMemberNotFound", func() {
				So(err, ShouldEqual, record.ErrMemberNotFound)
			})
		})

		Convey("When saving and reading back a member", func() {
			ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
			m := model.Member{
				ID:              "u1",
				Name:            "Robin",
				XP:              150,
				Badges:          []string{"First Step"},
				Streak:          3,
				LastCompletedAt: &ts,
				City:            "Seattle",
			}
			So(store.SaveMember(ctx, m), ShouldBeNil)

			got, err := store.FindMember(ctx, "u1")
			So(err, ShouldBeNil)

			Convey("Then the record should round-trip", func() {
				So(got.XP, ShouldEqual, 150)
				So(got.Badges, ShouldResemble, []string{"First Step"})
				So(got.Streak, ShouldEqual, 3)
				So(got.City, ShouldEqual, "Seattle")
			})

			Convey("And mutating the returned record should not affect stored state", func() {
				got.Badges[0] = "mutated"
				*got.LastCompletedAt = time.Time{}

				again, err := store.FindMember(ctx, "u1")
				So(err, ShouldBeNil)
				So(again.Badges[0], ShouldEqual, "First Step")
				So(again.LastCompletedAt.Equal(ts), ShouldBeTrue)
			})
		})

		Convey("When upserting and finding quests", func() {
			q := model.Quest{ID: "q1", Title: "Plant a tree", XP: 50, Active: true}
			So(store.UpsertQuest(ctx, q), ShouldBeNil)

			got, err := store.FindQuest(ctx, "q1")
			So(err, ShouldBeNil)
			So(got.XP, ShouldEqual, 50)

			_, err = store.FindQuest(ctx, "missing")
			So(err, ShouldEqual, record.ErrQuestNotFound)
		})
	})
}

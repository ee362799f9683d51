// Package award computes XP awards, badge unlocks, and streaks for
// completed quests, then hands the refreshed totals to the ranking
// and broadcast pipelines.
package award

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/verdantquest/questboard/internal/adapters/record"
	"github.com/verdantquest/questboard/internal/domain/model"
	"github.com/verdantquest/questboard/internal/domain/scope"
	"github.com/verdantquest/questboard/pkg/logger"
	"github.com/verdantquest/questboard/pkg/metrics"
)

// placeholderName is used when a member has no profile yet.
const placeholderName = "Anonymous"

// Badge pairs an XP threshold with the badge granted on crossing it.
type Badge struct {
	Threshold int64
	Name      string
}

// DefaultBadges is the stock threshold table. Thresholds must ascend.
func DefaultBadges() []Badge {
	return []Badge{
		{Threshold: 100, Name: "First Step"},
		{Threshold: 300, Name: "Tree Friend"},
		{Threshold: 600, Name: "Eco Champion"},
	}
}

// Syncer pushes a member's refreshed total into the ranking stores.
type Syncer interface {
	Sync(ctx context.Context, memberID string, total int64, city string) error
}

// Notifier enqueues a rank update for asynchronous broadcast.
// Returns false on backpressure.
type Notifier interface {
	Notify(ctx context.Context, update model.RankUpdate) bool
}

// Engine awards XP for completed quests. Awards for the same member are
// serialized: one award fully completes (persist, sync, notify) before
// the next for that member begins. Different members proceed in parallel.
type Engine struct {
	records  record.Store
	syncer   Syncer
	notifier Notifier
	badges   []Badge
	now      func() time.Time
	logger   logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs an Engine with configuration options.
func New(records record.Store, syncer Syncer, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		records:  records,
		syncer:   syncer,
		notifier: notifier,
		badges:   DefaultBadges(),
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("award")
	}
	return e
}

// Award processes one quest completion for a member.
//
// Failures before or during persistence surface as errors and leave no
// ranking side effects. Sync and notify failures after persistence are
// logged and swallowed: the award is already durable and the leaderboard
// is explicitly best-effort.
func (e *Engine) Award(ctx context.Context, memberID, questID string) (model.AwardResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordAwardLatency(float64(time.Since(start).Milliseconds()))
	}()

	if strings.TrimSpace(memberID) == "" || strings.TrimSpace(questID) == "" {
		metrics.RecordAwardFailed()
		return model.AwardResult{}, fmt.Errorf("%w: member and quest ids required", ErrValidation)
	}

	lock := e.memberLock(memberID)
	lock.Lock()
	defer lock.Unlock()

	quest, err := e.records.FindQuest(ctx, questID)
	if err != nil {
		metrics.RecordAwardFailed()
		if errors.Is(err, record.ErrQuestNotFound) {
			return model.AwardResult{}, fmt.Errorf("%w: %s", ErrQuestNotFound, questID)
		}
		return model.AwardResult{}, fmt.Errorf("quest lookup: %w", err)
	}
	if !quest.Active {
		metrics.RecordAwardFailed()
		return model.AwardResult{}, fmt.Errorf("%w: %s is inactive", ErrQuestNotFound, questID)
	}

	member, err := e.records.FindMember(ctx, memberID)
	if errors.Is(err, record.ErrMemberNotFound) {
		member = model.Member{ID: memberID, Name: placeholderName, Email: memberID}
	} else if err != nil {
		metrics.RecordAwardFailed()
		return model.AwardResult{}, fmt.Errorf("member lookup: %w", err)
	}

	now := e.now().UTC()
	newTotal := member.XP + quest.XP
	unlocked := e.unlockedBadges(member.Badges, newTotal)

	member.XP = newTotal
	member.Badges = append(member.Badges, unlocked...)
	member.Streak = nextStreak(member.Streak, member.LastCompletedAt, now)
	member.LastCompletedAt = &now

	if err := e.records.SaveMember(ctx, member); err != nil {
		// Never sync a score that was not durably persisted.
		metrics.RecordAwardFailed()
		metrics.RecordErrorByComponent("award", "persistence")
		return model.AwardResult{}, fmt.Errorf("%w: %v", ErrAwardFailed, err)
	}

	e.afterPersist(ctx, member)

	metrics.RecordAwardProcessed()
	metrics.RecordBadgeUnlocks(len(unlocked))
	e.logger.Info(ctx, "awarded quest XP",
		logger.String("memberID", memberID),
		logger.String("questID", questID),
		logger.Int64("deltaXP", quest.XP),
		logger.Int64("newTotalXP", newTotal),
		logger.Int("streak", member.Streak),
		logger.Int("badgesUnlocked", len(unlocked)),
	)

	return model.AwardResult{
		MemberID:       memberID,
		NewTotalXP:     newTotal,
		BadgesUnlocked: unlocked,
		Streak:         member.Streak,
	}, nil
}

// afterPersist runs the best-effort tail of the award: rank sync and
// broadcast notification. Errors degrade silently.
func (e *Engine) afterPersist(ctx context.Context, member model.Member) {
	if err := e.syncer.Sync(ctx, member.ID, member.XP, member.City); err != nil {
		metrics.RecordSyncError()
		e.logger.Warn(ctx, "rank sync failed; leaderboard stale until next award",
			logger.String("memberID", member.ID),
			logger.Error(err),
		)
	}

	scopes := []scope.Scope{scope.Global()}
	if member.City != "" {
		if sc, err := scope.City(member.City); err == nil {
			scopes = append(scopes, sc)
		}
	}
	if ok := e.notifier.Notify(ctx, model.RankUpdate{MemberID: member.ID, Scopes: scopes}); !ok {
		metrics.RecordErrorByComponent("award", "notify_backpressure")
		e.logger.Warn(ctx, "broadcast notify dropped",
			logger.String("memberID", member.ID),
		)
	}
}

// unlockedBadges returns every badge whose threshold newTotal reaches
// and the member does not already hold. A single large award can cross
// several tiers at once; each is granted exactly once, and badges are
// never revoked.
func (e *Engine) unlockedBadges(held []string, newTotal int64) []string {
	owned := make(map[string]bool, len(held))
	for _, b := range held {
		owned[b] = true
	}

	var unlocked []string
	for _, b := range e.badges {
		if newTotal >= b.Threshold && !owned[b.Name] {
			unlocked = append(unlocked, b.Name)
		}
	}
	return unlocked
}

// nextStreak applies calendar-day streak semantics: a gap of exactly
// one calendar day extends the streak, a larger gap resets it, awards
// on the same day leave it unchanged, and a first award starts at 1.
func nextStreak(prev int, last *time.Time, now time.Time) int {
	if last == nil {
		return 1
	}

	gap := calendarDays(last.UTC(), now)
	switch {
	case gap == 0:
		if prev < 1 {
			return 1
		}
		return prev
	case gap == 1:
		return prev + 1
	default:
		return 1
	}
}

// calendarDays counts whole calendar-day boundaries between two times,
// not 24-hour spans: 23:59 to 00:01 the next day is one day.
func calendarDays(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

// memberLock returns the mutex serializing awards for one member.
func (e *Engine) memberLock(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

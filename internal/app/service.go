// Package service wires the award engine, ranking stores, broadcast
// pipeline, and hub behind the dependencies the HTTP API needs.
package service

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"sync"
	"time"

	rankupdates "github.com/verdantquest/questboard/internal/adapters/mq/queue"
	workerpool "github.com/verdantquest/questboard/internal/adapters/mq/worker"
	"github.com/verdantquest/questboard/internal/adapters/rankstore"
	"github.com/verdantquest/questboard/internal/adapters/record"
	"github.com/verdantquest/questboard/internal/adapters/ws"
	"github.com/verdantquest/questboard/internal/domain/award"
	"github.com/verdantquest/questboard/internal/domain/dedupe"
	"github.com/verdantquest/questboard/internal/domain/model"
	"github.com/verdantquest/questboard/internal/domain/scope"
	"github.com/verdantquest/questboard/pkg/logger"
	"github.com/verdantquest/questboard/pkg/metrics"
)

// placeholderName stands in when a ranked member has no profile record.
const placeholderName = "Anonymous"

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry *rankstore.Registry
	records  record.Store
	deduper  dedupe.Deduper
	queue    *rankupdates.InMemoryQueue
	pool     *workerpool.Pool
	hub      *ws.Hub
	engine   *award.Engine

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	snapshotSize int
	sendBuffer   int
	badges       []award.Badge

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of broadcast worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the rank-update queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the proof deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSnapshotSize sets how many entries each broadcast snapshot carries.
func WithSnapshotSize(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.snapshotSize = k
		}
	}
}

// WithSendBuffer sets the per-subscriber outbound buffer size.
func WithSendBuffer(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.sendBuffer = size
		}
	}
}

// WithBadges sets the badge threshold table.
func WithBadges(badges []award.Badge) Option {
	return func(s *Service) {
		if len(badges) > 0 {
			s.badges = badges
		}
	}
}

// WithRecordStore sets the member and quest record store.
func WithRecordStore(store record.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.records = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    10000,
		dedupeSize:   50000,
		snapshotSize: 10,
		badges:       award.DefaultBadges(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting questboard service...")

	s.registry = rankstore.NewRegistry()
	if s.records == nil {
		s.records = record.NewMemoryStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = rankupdates.NewInMemoryQueue(
		rankupdates.WithCapacity(s.queueSize),
		rankupdates.WithBufferSize(s.queueSize),
	)

	hubOpts := []ws.Option{}
	if s.sendBuffer > 0 {
		hubOpts = append(hubOpts, ws.WithSendBuffer(s.sendBuffer))
	}
	s.hub = ws.NewHub(hubOpts...)

	s.engine = award.New(
		s.records,
		&scoreSync{registry: s.registry, logger: s.logger.Named("sync")},
		&queueNotifier{queue: s.queue},
		award.WithBadges(s.badges),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.registry, s.hub,
		workerpool.WithSnapshotSize(s.snapshotSize),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "questboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("snapshotSize", s.snapshotSize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping questboard service...")

	// Shutdown closes the queue and drains the workers, so in-flight
	// updates still reach subscribers before the hub goes away.
	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.hub != nil {
		s.hub.Close()
	}

	s.started = false
	s.logger.Info(ctx, "questboard service stopped")
}

// Award processes one quest completion for a member.
func (s *Service) Award(ctx context.Context, memberID, questID string) (model.AwardResult, error) {
	return s.engine.Award(ctx, memberID, questID)
}

// SeenAndRecord atomically checks whether a proof id was seen and
// records it if not. Returns true if the proof was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, proofID string) bool {
	seen := s.deduper.SeenAndRecord(ctx, proofID)
	if seen {
		metrics.RecordAwardDuplicate()
	}
	return seen
}

// Unrecord removes a proof id from the seen set so the award can retry.
func (s *Service) Unrecord(ctx context.Context, proofID string) {
	s.deduper.Unrecord(ctx, proofID)
}

// TopK returns up to k enriched leaderboard rows for a scope.
// Members without a profile record keep a placeholder name.
func (s *Service) TopK(ctx context.Context, sc scope.Scope, k int) ([]model.BoardRow, error) {
	entries, err := s.registry.TopK(ctx, sc, k)
	if err != nil {
		return nil, err
	}

	rows := make([]model.BoardRow, len(entries))
	for i, e := range entries {
		rows[i] = model.BoardRow{
			Rank:     e.Rank,
			MemberID: e.MemberID,
			Name:     placeholderName,
			XP:       e.Score,
		}
		member, err := s.records.FindMember(ctx, e.MemberID)
		if err != nil {
			if !errors.Is(err, record.ErrMemberNotFound) {
				s.logger.Warn(ctx, "member lookup failed",
					logger.String("memberID", e.MemberID),
					logger.Error(err),
				)
			}
			continue
		}
		if member.Name != "" {
			rows[i].Name = member.Name
		}
		rows[i].City = member.City
	}
	return rows, nil
}

// Rank returns one member's enriched row in a scope.
// Returns rankstore.ErrNotFound for an unranked member.
func (s *Service) Rank(ctx context.Context, sc scope.Scope, memberID string) (model.BoardRow, error) {
	entry, err := s.registry.Rank(ctx, sc, memberID)
	if err != nil {
		return model.BoardRow{}, err
	}

	row := model.BoardRow{
		Rank:     entry.Rank,
		MemberID: entry.MemberID,
		Name:     placeholderName,
		XP:       entry.Score,
	}
	if member, err := s.records.FindMember(ctx, entry.MemberID); err == nil {
		if member.Name != "" {
			row.Name = member.Name
		}
		row.City = member.City
	}
	return row, nil
}

// SeedQuests loads a quest catalog into the record store.
func (s *Service) SeedQuests(ctx context.Context, quests []model.Quest) error {
	for _, q := range quests {
		if err := s.records.UpsertQuest(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// ServeWS upgrades an HTTP request into a hub subscription connection.
func (s *Service) ServeWS(w http.ResponseWriter, r *http.Request) {
	s.hub.Serve(w, r)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"snapshotSize": s.snapshotSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["scopes"] = s.registry.Scopes()
		stats["connections"] = s.hub.ConnectionCount()
		stats["subscriptions"] = s.hub.SubscriptionCount()
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRankStoreScopes(s.registry.Len())
		metrics.UpdateHubConnections(s.hub.ConnectionCount())
		metrics.UpdateHubSubscriptions(s.hub.SubscriptionCount())
	}
	return stats
}

// scoreSync pushes refreshed totals into the per-scope rank stores.
// The global store is authoritative; a city store failure is logged
// and does not unwind the global update.
type scoreSync struct {
	registry *rankstore.Registry
	logger   logger.Logger
}

func (ss *scoreSync) Sync(ctx context.Context, memberID string, total int64, city string) error {
	start := time.Now()
	defer func() {
		metrics.RecordRankStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ss.registry.Store(scope.Global()).Upsert(ctx, memberID, total); err != nil {
		metrics.RecordSyncError()
		return err
	}

	if city == "" {
		return nil
	}
	sc, err := scope.City(city)
	if err != nil {
		metrics.RecordSyncError()
		ss.logger.Warn(ctx, "skipping city sync",
			logger.String("memberID", memberID),
			logger.String("city", city),
			logger.Error(err),
		)
		return nil
	}
	if err := ss.registry.Store(sc).Upsert(ctx, memberID, total); err != nil {
		metrics.RecordSyncError()
		ss.logger.Error(ctx, "city sync failed",
			logger.String("memberID", memberID),
			logger.String("scope", sc.Key()),
			logger.Error(err),
		)
	}
	return nil
}

// queueNotifier hands rank updates to the broadcast queue.
type queueNotifier struct {
	queue rankupdates.Queue
}

func (n *queueNotifier) Notify(ctx context.Context, update model.RankUpdate) bool {
	return n.queue.Enqueue(ctx, update)
}

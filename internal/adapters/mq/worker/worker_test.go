package worker_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	queue "github.com/verdantquest/questboard/internal/adapters/mq/queue"
	worker "github.com/verdantquest/questboard/internal/adapters/mq/worker"
	rankstore "github.com/verdantquest/questboard/internal/adapters/rankstore"
	model "github.com/verdantquest/questboard/internal/domain/model"
	scope "github.com/verdantquest/questboard/internal/domain/scope"
	logging "github.com/verdantquest/questboard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logging.Init()
	os.Exit(m.Run())
}

// Mock implementations for testing.
type mockQueue struct {
	updates chan queue.Update
}

func newMockQueue() *mockQueue {
	return &mockQueue{updates: make(chan queue.Update, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Update {
	return mq.updates
}

func (mq *mockQueue) Close() error {
	close(mq.updates)
	return nil
}

func (mq *mockQueue) add(u queue.Update) {
	mq.updates <- u
}

type mockSnapshotter struct {
	mu      sync.Mutex
	entries map[string][]rankstore.Entry
	errors  map[string]error
	asked   map[string]int
}

func newMockSnapshotter() *mockSnapshotter {
	return &mockSnapshotter{
		entries: make(map[string][]rankstore.Entry),
		errors:  make(map[string]error),
		asked:   make(map[string]int),
	}
}

func (ms *mockSnapshotter) TopK(ctx context.Context, sc scope.Scope, k int) ([]rankstore.Entry, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.asked[sc.Key()] = k
	if err, ok := ms.errors[sc.Key()]; ok {
		return nil, err
	}
	return ms.entries[sc.Key()], nil
}

func (ms *mockSnapshotter) set(sc scope.Scope, entries []rankstore.Entry) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.entries[sc.Key()] = entries
}

func (ms *mockSnapshotter) fail(sc scope.Scope, err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.errors[sc.Key()] = err
}

func (ms *mockSnapshotter) askedWith(sc scope.Scope) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.asked[sc.Key()]
}

type published struct {
	scope   scope.Scope
	entries []rankstore.Entry
}

type mockPublisher struct {
	mu   sync.Mutex
	sent []published
}

func (mp *mockPublisher) Publish(ctx context.Context, sc scope.Scope, entries []rankstore.Entry) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.sent = append(mp.sent, published{scope: sc, entries: entries})
}

func (mp *mockPublisher) published() []published {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	out := make([]published, len(mp.sent))
	copy(out, mp.sent)
	return out
}

func (mp *mockPublisher) waitFor(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(mp.published()) >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return len(mp.published()) >= n
}

func update(memberID string, scopes ...scope.Scope) model.RankUpdate {
	return model.RankUpdate{MemberID: memberID, Scopes: scopes}
}

func TestWorkerPublishesSnapshots(t *testing.T) {
	convey.Convey("Given a worker draining a queue", t, func() {
		q := newMockQueue()
		snaps := newMockSnapshotter()
		pub := &mockPublisher{}

		seattle, err := scope.City("Seattle")
		convey.So(err, convey.ShouldBeNil)

		snaps.set(scope.Global(), []rankstore.Entry{
			{Rank: 1, MemberID: "maya", Score: 150},
			{Rank: 2, MemberID: "liam", Score: 90},
		})
		snaps.set(seattle, []rankstore.Entry{
			{Rank: 1, MemberID: "maya", Score: 150},
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		w := worker.NewWorker(q, snaps, pub)
		go w.Run(ctx)
		defer func() { _ = w.Shutdown(context.Background()) }()

		convey.Convey("When an update touches two scopes", func() {
			q.add(update("maya", scope.Global(), seattle))

			convey.So(pub.waitFor(2, time.Second), convey.ShouldBeTrue)

			convey.Convey("Then each scope gets its own snapshot", func() {
				sent := pub.published()
				convey.So(sent, convey.ShouldHaveLength, 2)
				convey.So(sent[0].scope.Key(), convey.ShouldEqual, "global")
				convey.So(sent[0].entries, convey.ShouldHaveLength, 2)
				convey.So(sent[0].entries[0].MemberID, convey.ShouldEqual, "maya")
				convey.So(sent[1].scope.Key(), convey.ShouldEqual, "city:Seattle")
				convey.So(sent[1].entries, convey.ShouldHaveLength, 1)
			})
		})
	})
}

func TestWorkerSnapshotSize(t *testing.T) {
	convey.Convey("Given a worker with a custom snapshot size", t, func() {
		q := newMockQueue()
		snaps := newMockSnapshotter()
		pub := &mockPublisher{}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		w := worker.NewWorker(q, snaps, pub, worker.WithSnapshotSize(3))
		go w.Run(ctx)
		defer func() { _ = w.Shutdown(context.Background()) }()

		convey.Convey("When it processes an update", func() {
			q.add(update("maya", scope.Global()))
			convey.So(pub.waitFor(1, time.Second), convey.ShouldBeTrue)

			convey.Convey("Then the snapshotter is asked for that many entries", func() {
				convey.So(snaps.askedWith(scope.Global()), convey.ShouldEqual, 3)
			})
		})
	})
}

func TestWorkerSkipsFailedScope(t *testing.T) {
	convey.Convey("Given a snapshotter that fails for one scope", t, func() {
		q := newMockQueue()
		snaps := newMockSnapshotter()
		pub := &mockPublisher{}

		portland, err := scope.City("Portland")
		convey.So(err, convey.ShouldBeNil)

		snaps.fail(scope.Global(), errors.New("store unavailable"))
		snaps.set(portland, []rankstore.Entry{{Rank: 1, MemberID: "ava", Score: 40}})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		w := worker.NewWorker(q, snaps, pub)
		go w.Run(ctx)
		defer func() { _ = w.Shutdown(context.Background()) }()

		convey.Convey("When an update touches both scopes", func() {
			q.add(update("ava", scope.Global(), portland))
			convey.So(pub.waitFor(1, time.Second), convey.ShouldBeTrue)

			convey.Convey("Then only the healthy scope publishes", func() {
				sent := pub.published()
				convey.So(sent, convey.ShouldHaveLength, 1)
				convey.So(sent[0].scope.Key(), convey.ShouldEqual, "city:Portland")
			})
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := newMockQueue()
		snaps := newMockSnapshotter()
		pub := &mockPublisher{}

		w := worker.NewWorker(q, snaps, pub, worker.WithName("test-worker"))
		go w.Run(context.Background())

		convey.Convey("When shutdown is requested", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then a second shutdown is a no-op", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPoolLifecycle(t *testing.T) {
	convey.Convey("Given a pool of workers sharing one queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		snaps := newMockSnapshotter()
		pub := &mockPublisher{}

		snaps.set(scope.Global(), []rankstore.Entry{{Rank: 1, MemberID: "maya", Score: 10}})

		pool := worker.NewPool(3, q, snaps, pub)
		ctx := context.Background()
		pool.Start(ctx)

		convey.Convey("When updates are enqueued", func() {
			for i := 0; i < 5; i++ {
				convey.So(q.Enqueue(ctx, update("maya", scope.Global())), convey.ShouldBeTrue)
			}
			convey.So(pub.waitFor(5, 2*time.Second), convey.ShouldBeTrue)

			convey.Convey("And shutdown drains cleanly", func() {
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}

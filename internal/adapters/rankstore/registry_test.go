package rankstore

import (
	"context"
	"sync"
	"testing"

	"github.com/verdantquest/questboard/internal/domain/scope"
)

func TestRegistry_LazyCityStores(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	if reg.Len() != 1 {
		t.Fatalf("expected only the global store at start, got %d", reg.Len())
	}

	seattle, err := scope.City("Seattle")
	if err != nil {
		t.Fatal(err)
	}

	// Lookup must not create.
	if _, ok := reg.Lookup(seattle); ok {
		t.Error("lookup created a store")
	}
	entries, err := reg.TopK(ctx, seattle, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("unknown scope should read as empty, got %d entries", len(entries))
	}
	if reg.Len() != 1 {
		t.Errorf("read created a store; scopes %v", reg.Scopes())
	}

	// Store creates on first write path.
	if err := reg.Store(seattle).Upsert(ctx, "u1", 10); err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 2 {
		t.Errorf("expected 2 scopes, got %d", reg.Len())
	}
}

func TestRegistry_ScopeIsolation(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	seattle, _ := scope.City("Seattle")
	portland, _ := scope.City("Portland")

	if err := reg.Store(scope.Global()).Upsert(ctx, "u1", 100); err != nil {
		t.Fatal(err)
	}
	if err := reg.Store(seattle).Upsert(ctx, "u1", 100); err != nil {
		t.Fatal(err)
	}

	// Updating global must not leak into any city.
	if err := reg.Store(scope.Global()).Upsert(ctx, "u1", 200); err != nil {
		t.Fatal(err)
	}

	entries, err := reg.TopK(ctx, seattle, 1)
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Score != 100 {
		t.Errorf("city score changed by global update: %d", entries[0].Score)
	}

	entries, err = reg.TopK(ctx, portland, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("portland should be empty, got %d entries", len(entries))
	}
}

func TestRegistry_ConcurrentScopeCreation(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	cities := []string{"Seattle", "Portland", "Austin", "Denver"}
	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			sc, err := scope.City(cities[w%len(cities)])
			if err != nil {
				t.Error(err)
				return
			}
			if err := reg.Store(sc).Upsert(ctx, "u1", int64(w)); err != nil {
				t.Error(err)
			}
		}(w)
	}
	wg.Wait()

	if reg.Len() != len(cities)+1 {
		t.Errorf("expected %d scopes, got %d: %v", len(cities)+1, reg.Len(), reg.Scopes())
	}
}

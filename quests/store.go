package quests

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/nathoo/questrun/engine/errs"
	"github.com/nathoo/questrun/types"
)

// Store persists quest records keyed by ref.
type Store interface {
	Get(ctx context.Context, ref string) (types.Quest, error)
	Put(ctx context.Context, q types.Quest) error
	Delete(ctx context.Context, ref string) error
	List(ctx context.Context) ([]types.Quest, error)
}

// Active filters quests down to those still open.
func Active(qs []types.Quest) []types.Quest {
	var out []types.Quest
	for _, q := range qs {
		if q.Status == types.QuestActive {
			out = append(out, q)
		}
	}
	return out
}

// ValidRef reports whether ref can name a quest.
func ValidRef(ref string) bool {
	return ref != "" && ref != "." && ref != ".." && !strings.ContainsAny(ref, `/\`)
}

// MemoryStore keeps quests in memory.
type MemoryStore struct {
	mu     sync.Mutex
	quests map[string]types.Quest
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{quests: make(map[string]types.Quest)}
}

func (m *MemoryStore) Get(_ context.Context, ref string) (types.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quests[ref]
	if !ok {
		return types.Quest{}, errs.NotFound("quest", ref)
	}
	return q, nil
}

func (m *MemoryStore) Put(_ context.Context, q types.Quest) error {
	if !ValidRef(q.Ref) {
		return errs.Blocked(errs.InvalidInput, "invalid quest ref %q", q.Ref)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quests[q.Ref] = q
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quests[ref]; !ok {
		return errs.NotFound("quest", ref)
	}
	delete(m.quests, ref)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]types.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Quest, 0, len(m.quests))
	for _, q := range m.quests {
		out = append(out, q)
	}
	slices.SortFunc(out, func(a, b types.Quest) int { return strings.Compare(a.Ref, b.Ref) })
	return out, nil
}

package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"inventory-system/internal/entities"
	"inventory-system/internal/repositories"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
)

// memStore - общее состояние фейковых репозиториев. Транзакция = снимок + откат.
type memStore struct {
	mu         sync.Mutex
	nextEquip  uint64
	nextHist   uint64
	clock      time.Time
	equipment  map[string]entities.Equipment
	history    []entities.EquipmentHistory
	users      map[uint64]entities.User
	nextUserID uint64
}

type memSnapshot struct {
	nextEquip uint64
	nextHist  uint64
	equipment map[string]entities.Equipment
	history   []entities.EquipmentHistory
}

func newMemStore() *memStore {
	return &memStore{
		clock:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		equipment: make(map[string]entities.Equipment),
		users:     make(map[uint64]entities.User),
	}
}

// tick - каждое обращение даёт время строго позже предыдущего
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	eq := make(map[string]entities.Equipment, len(s.equipment))
	for k, v := range s.equipment {
		eq[k] = v
	}
	return memSnapshot{
		nextEquip: s.nextEquip,
		nextHist:  s.nextHist,
		equipment: eq,
		history:   append([]entities.EquipmentHistory(nil), s.history...),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEquip = snap.nextEquip
	s.nextHist = snap.nextHist
	s.equipment = snap.equipment
	s.history = snap.history
}

func (s *memStore) historyCount(equipmentID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.history {
		if h.EquipmentID == equipmentID {
			n++
		}
	}
	return n
}

// --- TxManager ---

type fakeTxManager struct {
	store   *memStore
	commits int
	aborts  int
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	snap := m.store.snapshot()
	if err := fn(nil); err != nil {
		m.store.restore(snap)
		m.aborts++
		return err
	}
	m.commits++
	return nil
}

func (m *fakeTxManager) RunInReadTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// --- EquipmentRepository ---

type fakeEquipmentRepo struct {
	store *memStore
	// raceConflicts - сколько вставок подряд "проиграют" параллельной вставке того же uuid
	raceConflicts int
}

func (r *fakeEquipmentRepo) List(ctx context.Context, filter repositories.EquipmentFilter) ([]entities.Equipment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]entities.Equipment, 0, len(r.store.equipment))
	for _, e := range r.store.equipment {
		if filter.Status != "" && string(e.Status) != filter.Status {
			continue
		}
		if q := strings.ToLower(filter.Search); q != "" &&
			!strings.Contains(strings.ToLower(e.Name), q) && !strings.Contains(strings.ToLower(e.Location), q) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeEquipmentRepo) FindByUUID(ctx context.Context, uuid string) (*entities.Equipment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.equipment[uuid]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &e, nil
}

func (r *fakeEquipmentRepo) FindByUUIDInTx(ctx context.Context, tx pgx.Tx, uuid string, forUpdate bool) (*entities.Equipment, error) {
	return r.FindByUUID(ctx, uuid)
}

func (r *fakeEquipmentRepo) ExistsByUUIDInTx(ctx context.Context, tx pgx.Tx, uuid string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	_, ok := r.store.equipment[uuid]
	return ok, nil
}

func (r *fakeEquipmentRepo) CreateInTx(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.raceConflicts > 0 {
		r.raceConflicts--
		return fmt.Errorf("uuid %s уже занят: %w", equipment.UUID, apperrors.ErrConflict)
	}
	if _, ok := r.store.equipment[equipment.UUID]; ok {
		return fmt.Errorf("uuid %s уже занят: %w", equipment.UUID, apperrors.ErrConflict)
	}
	r.store.nextEquip++
	equipment.ID = r.store.nextEquip
	now := r.store.tick()
	equipment.CreatedAt = now
	equipment.UpdatedAt = now
	r.store.equipment[equipment.UUID] = *equipment
	return nil
}

func (r *fakeEquipmentRepo) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, uuid string, status constants.EquipmentStatus) (*entities.Equipment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.equipment[uuid]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = r.store.tick()
	r.store.equipment[uuid] = e
	return &e, nil
}

func (r *fakeEquipmentRepo) UpdateFieldsInTx(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) (*entities.Equipment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.equipment[equipment.UUID]
	if !ok || e.ID != equipment.ID {
		return nil, apperrors.ErrNotFound
	}
	e.Name = equipment.Name
	e.Location = equipment.Location
	e.Notes = equipment.Notes
	e.UpdatedAt = r.store.tick()
	r.store.equipment[e.UUID] = e
	return &e, nil
}

func (r *fakeEquipmentRepo) DeleteInTx(ctx context.Context, tx pgx.Tx, uuid string) (*entities.Equipment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.equipment[uuid]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	delete(r.store.equipment, uuid)

	// ON DELETE CASCADE
	kept := r.store.history[:0]
	for _, h := range r.store.history {
		if h.EquipmentID != e.ID {
			kept = append(kept, h)
		}
	}
	r.store.history = kept
	return &e, nil
}

// --- EquipmentHistoryRepository ---

type fakeHistoryRepo struct {
	store *memStore
	// failErr возвращается после failAfter успешных вставок
	failAfter int
	failErr   error
}

func (r *fakeHistoryRepo) CreateInTx(ctx context.Context, tx pgx.Tx, history *entities.EquipmentHistory) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.failErr != nil {
		if r.failAfter == 0 {
			return r.failErr
		}
		r.failAfter--
	}
	r.store.nextHist++
	history.ID = r.store.nextHist
	history.CreatedAt = r.store.tick()
	r.store.history = append(r.store.history, *history)
	return nil
}

func (r *fakeHistoryRepo) FindByEquipmentID(ctx context.Context, equipmentID uint64) ([]entities.EquipmentHistory, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]entities.EquipmentHistory, 0)
	for _, h := range r.store.history {
		if h.EquipmentID == equipmentID {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeHistoryRepo) FindByEquipmentIDInTx(ctx context.Context, tx pgx.Tx, equipmentID uint64) ([]entities.EquipmentHistory, error) {
	return r.FindByEquipmentID(ctx, equipmentID)
}

// --- codeimage.Generator ---

type fakeCodeImages struct {
	mu        sync.Mutex
	generated []string
	discarded []string
	failErr   error
}

func (g *fakeCodeImages) Generate(ctx context.Context, identity string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failErr != nil {
		return "", g.failErr
	}
	ref := "qrcodes/2024/01/01/" + identity + ".png"
	g.generated = append(g.generated, ref)
	return ref, nil
}

func (g *fakeCodeImages) Discard(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.discarded = append(g.discarded, ref)
}

// --- UserRepository ---

type fakeUserRepo struct {
	store *memStore
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if strings.EqualFold(u.Username, username) {
			u := u
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entities.User) (*entities.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if strings.EqualFold(u.Username, user.Username) {
			return nil, apperrors.ErrConflict
		}
	}
	r.store.nextUserID++
	created := *user
	created.ID = r.store.nextUserID
	r.store.users[created.ID] = created
	return &created, nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.PasswordHash = passwordHash
	r.store.users[id] = u
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (uint64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return uint64(len(r.store.users)), nil
}

// --- CacheRepository ---

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	gets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	default:
		c.data[key] = fmt.Sprint(v)
	}
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

// sequenceIdentities отдаёт заданные идентификаторы по очереди, потом нумерует сам
func sequenceIdentities(ids ...string) IdentityGenerator {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		i++
		if i <= len(ids) {
			return ids[i-1]
		}
		return fmt.Sprintf("generated-%d", i)
	}
}

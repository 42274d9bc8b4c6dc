package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "github.com/ZayanAhmed07/SpikeLeagueScrim/errors"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
)

// FakeScrimRepository is an in-memory ScrimRepository for tests. It keeps
// the same check-and-set semantics as the DynamoDB implementation: every
// transition is atomic per record and a failed precondition yields a nil
// scrim. Per-method Fn hooks override the in-memory behavior for fault
// injection.
type FakeScrimRepository struct {
	mu     sync.Mutex
	scrims map[string]*models.Scrim

	TransitionStatusFn func(ctx context.Context, scrimID string, from, to models.ScrimStatus) (*models.Scrim, error)
	ListOpenForUserFn  func(ctx context.Context, userID, excludeScrimID string) ([]models.Scrim, error)
}

func NewFakeScrimRepository() *FakeScrimRepository {
	return &FakeScrimRepository{scrims: make(map[string]*models.Scrim)}
}

func (f *FakeScrimRepository) Create(ctx context.Context, scrim *models.Scrim) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now().UTC()
	scrim.Status = models.StatusOpen
	scrim.AckCount = 0
	scrim.CreatedAt = now
	scrim.UpdatedAt = now

	copied := *scrim
	f.scrims[scrim.ScrimID] = &copied
	return nil
}

func (f *FakeScrimRepository) GetByID(ctx context.Context, scrimID string) (*models.Scrim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	scrim, ok := f.scrims[scrimID]
	if !ok {
		return nil, nil
	}
	copied := *scrim
	return &copied, nil
}

func (f *FakeScrimRepository) BeginBooking(ctx context.Context, scrimID, challengerID string) (*models.Scrim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	scrim, ok := f.scrims[scrimID]
	if !ok || scrim.Status != models.StatusOpen || scrim.RequesterID == challengerID {
		return nil, nil
	}

	scrim.Status = models.StatusPending
	scrim.CounterpartID = challengerID
	scrim.UpdatedAt = time.Now().UTC()
	copied := *scrim
	return &copied, nil
}

func (f *FakeScrimRepository) ReopenFromPending(ctx context.Context, scrimID string) (*models.Scrim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	scrim, ok := f.scrims[scrimID]
	if !ok || scrim.Status != models.StatusPending {
		return nil, nil
	}

	scrim.Status = models.StatusOpen
	scrim.CounterpartID = ""
	scrim.UpdatedAt = time.Now().UTC()
	copied := *scrim
	return &copied, nil
}

func (f *FakeScrimRepository) TransitionStatus(ctx context.Context, scrimID string, from, to models.ScrimStatus) (*models.Scrim, error) {
	if f.TransitionStatusFn != nil {
		return f.TransitionStatusFn(ctx, scrimID, from, to)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	scrim, ok := f.scrims[scrimID]
	if !ok || scrim.Status != from {
		return nil, nil
	}

	scrim.Status = to
	scrim.UpdatedAt = time.Now().UTC()
	copied := *scrim
	return &copied, nil
}

func (f *FakeScrimRepository) MarkPlayedIfAcked(ctx context.Context, scrimID string) (*models.Scrim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	scrim, ok := f.scrims[scrimID]
	if !ok || scrim.Status != models.StatusBooked || scrim.AckCount < 2 {
		return nil, nil
	}

	scrim.Status = models.StatusPlayed
	scrim.UpdatedAt = time.Now().UTC()
	copied := *scrim
	return &copied, nil
}

func (f *FakeScrimRepository) GetActiveForUser(ctx context.Context, userID string) (*models.Scrim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var active *models.Scrim
	for _, scrim := range f.scrims {
		if scrim.RequesterID != userID || scrim.Status.Terminal() {
			continue
		}
		if active == nil || scrim.CreatedAt.After(active.CreatedAt) {
			active = scrim
		}
	}

	if active == nil {
		return nil, nil
	}
	copied := *active
	return &copied, nil
}

func (f *FakeScrimRepository) ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]models.Scrim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var stale []models.Scrim
	for _, scrim := range f.scrims {
		if scrim.Status == models.StatusOpen && scrim.CreatedAt.Before(cutoff) {
			stale = append(stale, *scrim)
		}
	}

	sort.Slice(stale, func(i, j int) bool {
		return stale[i].CreatedAt.Before(stale[j].CreatedAt)
	})
	return stale, nil
}

func (f *FakeScrimRepository) ListOpenForUser(ctx context.Context, userID, excludeScrimID string) ([]models.Scrim, error) {
	if f.ListOpenForUserFn != nil {
		return f.ListOpenForUserFn(ctx, userID, excludeScrimID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var open []models.Scrim
	for _, scrim := range f.scrims {
		if scrim.RequesterID == userID && scrim.Status == models.StatusOpen && scrim.ScrimID != excludeScrimID {
			open = append(open, *scrim)
		}
	}

	sort.Slice(open, func(i, j int) bool {
		return open[i].CreatedAt.Before(open[j].CreatedAt)
	})
	return open, nil
}

// Seed inserts a scrim as-is, without the Create defaults. Tests use it to
// stage records in arbitrary states.
func (f *FakeScrimRepository) Seed(scrim *models.Scrim) {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *scrim
	f.scrims[scrim.ScrimID] = &copied
}

// FakeAckRepository is the in-memory ack store. RecordAck mirrors the
// transactional DynamoDB path: insert and counter bump are atomic, a
// duplicate ack is (false, nil), a non-booked scrim is a CONFLICT.
type FakeAckRepository struct {
	mu     sync.Mutex
	acks   map[string]map[string]bool
	scrims *FakeScrimRepository
}

func NewFakeAckRepository(scrims *FakeScrimRepository) *FakeAckRepository {
	return &FakeAckRepository{
		acks:   make(map[string]map[string]bool),
		scrims: scrims,
	}
}

func (f *FakeAckRepository) RecordAck(ctx context.Context, scrimID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scrims.mu.Lock()
	defer f.scrims.mu.Unlock()

	if f.acks[scrimID][userID] {
		return false, nil
	}

	scrim, ok := f.scrims.scrims[scrimID]
	if !ok || scrim.Status != models.StatusBooked {
		return false, apperrors.New(apperrors.CodeConflict, "scrim is no longer booked")
	}

	if f.acks[scrimID] == nil {
		f.acks[scrimID] = make(map[string]bool)
	}
	f.acks[scrimID][userID] = true
	scrim.AckCount++
	return true, nil
}

func (f *FakeAckRepository) HasAcked(ctx context.Context, scrimID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.acks[scrimID][userID], nil
}

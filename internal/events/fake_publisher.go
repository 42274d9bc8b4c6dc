package events

import (
	"context"
	"sync"

	msg "github.com/ZayanAhmed07/SpikeLeagueScrim/events"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
)

// FakePublisher records published lifecycle events in memory.
type FakePublisher struct {
	mu        sync.Mutex
	Published []FakeEvent
}

type FakeEvent struct {
	Subject string
	ScrimID string
	Status  string
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) ScrimCreated(ctx context.Context, scrim *models.Scrim) {
	f.record(msg.ScrimCreated, scrim)
}

func (f *FakePublisher) ScrimBooked(ctx context.Context, scrim *models.Scrim) {
	f.record(msg.ScrimBooked, scrim)
}

func (f *FakePublisher) ScrimReverted(ctx context.Context, scrim *models.Scrim) {
	f.record(msg.ScrimReverted, scrim)
}

func (f *FakePublisher) ScrimCancelled(ctx context.Context, scrim *models.Scrim) {
	f.record(msg.ScrimCancelled, scrim)
}

func (f *FakePublisher) ScrimExpired(ctx context.Context, scrim *models.Scrim) {
	f.record(msg.ScrimExpired, scrim)
}

func (f *FakePublisher) ScrimPlayed(ctx context.Context, scrim *models.Scrim) {
	f.record(msg.ScrimPlayed, scrim)
}

func (f *FakePublisher) record(subject string, scrim *models.Scrim) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Published = append(f.Published, FakeEvent{
		Subject: subject,
		ScrimID: scrim.ScrimID,
		Status:  scrim.Status.String(),
	})
}

func (f *FakePublisher) Subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	subjects := make([]string, 0, len(f.Published))
	for _, e := range f.Published {
		subjects = append(subjects, e.Subject)
	}
	return subjects
}

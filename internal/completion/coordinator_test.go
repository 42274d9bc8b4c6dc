package completion

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ZayanAhmed07/SpikeLeagueScrim/errors"
	msg "github.com/ZayanAhmed07/SpikeLeagueScrim/events"
	scrimevents "github.com/ZayanAhmed07/SpikeLeagueScrim/internal/events"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/guard"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/lifecycle"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/notifier"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/repository"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/logger"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
)

type fixture struct {
	coordinator *Coordinator
	repo        *repository.FakeScrimRepository
	notify      *notifier.FakeNotifier
	present     *notifier.FakePresenter
	events      *scrimevents.FakePublisher
}

func newFixture() *fixture {
	repo := repository.NewFakeScrimRepository()
	acks := repository.NewFakeAckRepository(repo)
	engine := lifecycle.NewEngine(repo, logger.Nop())
	g := guard.New(repo, engine, logger.Nop())
	notify := notifier.NewFakeNotifier()
	present := notifier.NewFakePresenter()
	events := scrimevents.NewFakePublisher()

	return &fixture{
		coordinator: NewCoordinator(repo, acks, engine, g, notify, present, events, logger.Nop()),
		repo:        repo,
		notify:      notify,
		present:     present,
		events:      events,
	}
}

func (f *fixture) seedBooked(scrimID string) {
	f.repo.Seed(&models.Scrim{
		ScrimID:       scrimID,
		RequesterID:   "alice",
		CounterpartID: "bob",
		Status:        models.StatusBooked,
	})
}

func TestFirstConfirmationWaitsSecondCompletes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedBooked("s1")

	result, err := f.coordinator.Confirm(ctx, "s1", "alice")
	require.NoError(t, err)
	assert.Equal(t, Waiting, result)

	scrim, _ := f.repo.GetByID(ctx, "s1")
	assert.Equal(t, models.StatusBooked, scrim.Status)

	result, err = f.coordinator.Confirm(ctx, "s1", "bob")
	require.NoError(t, err)
	assert.Equal(t, Completed, result)

	scrim, _ = f.repo.GetByID(ctx, "s1")
	assert.Equal(t, models.StatusPlayed, scrim.Status)

	assert.Contains(t, f.events.Subjects(), msg.ScrimPlayed)
	assert.Contains(t, f.present.Removals, "s1")
	assert.NotEmpty(t, f.notify.MessagesFor("alice"))
	assert.NotEmpty(t, f.notify.MessagesFor("bob"))
}

// The counterpart can open a request of their own while booked, since the
// active-request index only tracks scrims a user requested. Completing the
// booked scrim has to expire it.
func TestCompletionCascadesOverCounterpartOpenRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedBooked("s1")

	f.repo.Seed(&models.Scrim{
		ScrimID:     "bobs-own",
		RequesterID: "bob",
		Status:      models.StatusOpen,
	})

	_, err := f.coordinator.Confirm(ctx, "s1", "alice")
	require.NoError(t, err)

	result, err := f.coordinator.Confirm(ctx, "s1", "bob")
	require.NoError(t, err)
	require.Equal(t, Completed, result)

	own, err := f.repo.GetByID(ctx, "bobs-own")
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, own.Status)

	assert.Contains(t, f.events.Subjects(), msg.ScrimExpired)
	assert.Contains(t, f.present.Removals, "bobs-own")
	assert.NotEmpty(t, f.notify.MessagesFor("bob"))
}

func TestRepeatConfirmationIsRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedBooked("s1")

	_, err := f.coordinator.Confirm(ctx, "s1", "alice")
	require.NoError(t, err)

	_, err = f.coordinator.Confirm(ctx, "s1", "alice")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyConfirmed))
}

func TestOutsiderCannotConfirm(t *testing.T) {
	f := newFixture()
	f.seedBooked("s1")

	_, err := f.coordinator.Confirm(context.Background(), "s1", "mallory")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotParticipant))
}

func TestUnknownScrim(t *testing.T) {
	f := newFixture()

	_, err := f.coordinator.Confirm(context.Background(), "ghost", "alice")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestConfirmRequiresBookedStatus(t *testing.T) {
	f := newFixture()
	f.repo.Seed(&models.Scrim{
		ScrimID:     "s1",
		RequesterID: "alice",
		Status:      models.StatusOpen,
	})

	_, err := f.coordinator.Confirm(context.Background(), "s1", "alice")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestConfirmOnPlayedScrimIsIdempotent(t *testing.T) {
	f := newFixture()
	f.repo.Seed(&models.Scrim{
		ScrimID:       "s1",
		RequesterID:   "alice",
		CounterpartID: "bob",
		Status:        models.StatusPlayed,
		AckCount:      2,
	})

	result, err := f.coordinator.Confirm(context.Background(), "s1", "alice")
	require.NoError(t, err)
	assert.Equal(t, Completed, result)
}

func TestSimultaneousConfirmationsProduceOnePlayed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedBooked("s1")

	var wg sync.WaitGroup
	results := make([]Result, 2)
	errs := make([]error, 2)

	for i, user := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(i int, user string) {
			defer wg.Done()
			results[i], errs[i] = f.coordinator.Confirm(ctx, "s1", user)
		}(i, user)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	scrim, err := f.repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlayed, scrim.Status)

	completed := 0
	for _, r := range results {
		if r == Completed {
			completed++
		}
	}
	assert.GreaterOrEqual(t, completed, 1)

	// The played event fires exactly once no matter how the race resolved.
	played := 0
	for _, subject := range f.events.Subjects() {
		if subject == msg.ScrimPlayed {
			played++
		}
	}
	assert.Equal(t, 1, played)
}

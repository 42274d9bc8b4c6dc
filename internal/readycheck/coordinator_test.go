package readycheck

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	engine      *lifecycle.Engine
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()

	repo := repository.NewFakeScrimRepository()
	engine := lifecycle.NewEngine(repo, logger.Nop())
	g := guard.New(repo, engine, logger.Nop())
	notify := notifier.NewFakeNotifier()
	present := notifier.NewFakePresenter()
	events := scrimevents.NewFakePublisher()

	coordinator := NewCoordinator(engine, g, notify, present, events, logger.Nop(), timeout)
	t.Cleanup(coordinator.Stop)

	return &fixture{
		coordinator: coordinator,
		repo:        repo,
		notify:      notify,
		present:     present,
		events:      events,
		engine:      engine,
	}
}

// startPending stages a scrim the way RequestBooking leaves it: pending
// with the challenger attached.
func (f *fixture) startPending(t *testing.T, scrimID, requesterID, challengerID string) *models.Scrim {
	t.Helper()

	f.repo.Seed(&models.Scrim{
		ScrimID:     scrimID,
		RequesterID: requesterID,
		Status:      models.StatusOpen,
		CreatedAt:   time.Now().UTC(),
	})

	pending, err := f.engine.RequestBooking(context.Background(), scrimID, challengerID)
	require.NoError(t, err)
	return pending
}

func waitForStatus(t *testing.T, repo *repository.FakeScrimRepository, scrimID string, want models.ScrimStatus) *models.Scrim {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		scrim, err := repo.GetByID(context.Background(), scrimID)
		require.NoError(t, err)
		if scrim != nil && scrim.Status == want {
			return scrim
		}
		select {
		case <-deadline:
			t.Fatalf("scrim %s never reached status %s", scrimID, want)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestBothAcksBookTheScrim(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	pending := f.startPending(t, "s1", "alice", "bob")
	require.NoError(t, f.coordinator.Begin(ctx, pending))

	alicePrompt, ok := f.notify.PromptFor("alice")
	require.True(t, ok)
	bobPrompt, ok := f.notify.PromptFor("bob")
	require.True(t, ok)

	f.coordinator.Acknowledge(ctx, "s1", alicePrompt.PromptID, "alice")
	f.coordinator.Acknowledge(ctx, "s1", bobPrompt.PromptID, "bob")

	booked := waitForStatus(t, f.repo, "s1", models.StatusBooked)
	assert.Equal(t, "bob", booked.CounterpartID)

	assert.Contains(t, f.events.Subjects(), msg.ScrimBooked)
	assert.NotEmpty(t, f.notify.MessagesFor("alice"))
	assert.NotEmpty(t, f.notify.MessagesFor("bob"))

	require.NotEmpty(t, f.present.Updates)
	last := f.present.Updates[len(f.present.Updates)-1]
	assert.Equal(t, "s1", last.ScrimID)
	assert.True(t, last.RemoveInteractivity)
}

func TestBookingCascadesOverOtherOpenRequests(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	// Bob has his own open request that must fall once he books Alice's.
	f.repo.Seed(&models.Scrim{
		ScrimID:     "bobs-own",
		RequesterID: "bob",
		Status:      models.StatusOpen,
		CreatedAt:   time.Now().UTC(),
	})

	pending := f.startPending(t, "s1", "alice", "bob")
	require.NoError(t, f.coordinator.Begin(ctx, pending))

	alicePrompt, _ := f.notify.PromptFor("alice")
	bobPrompt, _ := f.notify.PromptFor("bob")
	f.coordinator.Acknowledge(ctx, "s1", alicePrompt.PromptID, "alice")
	f.coordinator.Acknowledge(ctx, "s1", bobPrompt.PromptID, "bob")

	waitForStatus(t, f.repo, "s1", models.StatusBooked)
	waitForStatus(t, f.repo, "bobs-own", models.StatusExpired)

	assert.Contains(t, f.events.Subjects(), msg.ScrimExpired)
	assert.Contains(t, f.present.Removals, "bobs-own")
}

func TestTimeoutRevertsToOpen(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	ctx := context.Background()

	pending := f.startPending(t, "s1", "alice", "bob")
	require.NoError(t, f.coordinator.Begin(ctx, pending))

	reverted := waitForStatus(t, f.repo, "s1", models.StatusOpen)
	assert.Empty(t, reverted.CounterpartID)

	assert.Contains(t, f.events.Subjects(), msg.ScrimReverted)
	assert.NotEmpty(t, f.notify.MessagesFor("alice"))
	assert.NotEmpty(t, f.notify.MessagesFor("bob"))
}

func TestSingleAckThenTimeoutStillReverts(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	ctx := context.Background()

	pending := f.startPending(t, "s1", "alice", "bob")
	require.NoError(t, f.coordinator.Begin(ctx, pending))

	alicePrompt, _ := f.notify.PromptFor("alice")
	f.coordinator.Acknowledge(ctx, "s1", alicePrompt.PromptID, "alice")

	waitForStatus(t, f.repo, "s1", models.StatusOpen)
}

func TestUndeliverablePromptAbortsImmediately(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	f.notify.Unreachable["bob"] = true

	pending := f.startPending(t, "s1", "alice", "bob")
	err := f.coordinator.Begin(ctx, pending)
	require.Error(t, err)

	scrim, getErr := f.repo.GetByID(ctx, "s1")
	require.NoError(t, getErr)
	assert.Equal(t, models.StatusOpen, scrim.Status)
	assert.Empty(t, scrim.CounterpartID)

	// The reachable party hears about the abort.
	assert.NotEmpty(t, f.notify.MessagesFor("alice"))
}

func TestForeignAndDuplicateAcksAreIgnored(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	pending := f.startPending(t, "s1", "alice", "bob")
	require.NoError(t, f.coordinator.Begin(ctx, pending))

	alicePrompt, _ := f.notify.PromptFor("alice")
	bobPrompt, _ := f.notify.PromptFor("bob")

	// Wrong prompt id, wrong user for a valid prompt, and duplicates.
	f.coordinator.Acknowledge(ctx, "s1", "bogus-prompt", "alice")
	f.coordinator.Acknowledge(ctx, "s1", bobPrompt.PromptID, "mallory")
	f.coordinator.Acknowledge(ctx, "s1", alicePrompt.PromptID, "alice")
	f.coordinator.Acknowledge(ctx, "s1", alicePrompt.PromptID, "alice")

	scrim, err := f.repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, scrim.Status)

	// The real second ack completes the check.
	f.coordinator.Acknowledge(ctx, "s1", bobPrompt.PromptID, "bob")
	waitForStatus(t, f.repo, "s1", models.StatusBooked)
}

// instantAckNotifier acknowledges every prompt the moment it is delivered,
// a gateway round trip faster than any bookkeeping after the publish.
type instantAckNotifier struct {
	*notifier.FakeNotifier
	coordinator *Coordinator
}

func (n *instantAckNotifier) RequestAcknowledgment(ctx context.Context, scrimID, userID, promptID, prompt string) error {
	if err := n.FakeNotifier.RequestAcknowledgment(ctx, scrimID, userID, promptID, prompt); err != nil {
		return err
	}
	n.coordinator.Acknowledge(ctx, scrimID, promptID, userID)
	return nil
}

func TestAckArrivingDuringPromptDeliveryIsAccepted(t *testing.T) {
	repo := repository.NewFakeScrimRepository()
	engine := lifecycle.NewEngine(repo, logger.Nop())
	g := guard.New(repo, engine, logger.Nop())
	present := notifier.NewFakePresenter()
	events := scrimevents.NewFakePublisher()

	instant := &instantAckNotifier{FakeNotifier: notifier.NewFakeNotifier()}
	coordinator := NewCoordinator(engine, g, instant, present, events, logger.Nop(), time.Minute)
	t.Cleanup(coordinator.Stop)
	instant.coordinator = coordinator

	ctx := context.Background()
	repo.Seed(&models.Scrim{
		ScrimID:     "s1",
		RequesterID: "alice",
		Status:      models.StatusOpen,
		CreatedAt:   time.Now().UTC(),
	})
	pending, err := engine.RequestBooking(ctx, "s1", "bob")
	require.NoError(t, err)

	require.NoError(t, coordinator.Begin(ctx, pending))

	scrim, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusBooked, scrim.Status)
}

func TestAckForUnknownScrimIsDropped(t *testing.T) {
	f := newFixture(t, time.Minute)

	// Must not panic or alter anything.
	f.coordinator.Acknowledge(context.Background(), "ghost", "p1", "alice")
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ZayanAhmed07/SpikeLeagueScrim/errors"
	msg "github.com/ZayanAhmed07/SpikeLeagueScrim/events"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/completion"
	scrimevents "github.com/ZayanAhmed07/SpikeLeagueScrim/internal/events"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/guard"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/lifecycle"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/notifier"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/readycheck"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/repository"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/logger"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
)

type fixture struct {
	service    ScrimService
	repo       *repository.FakeScrimRepository
	notify     *notifier.FakeNotifier
	present    *notifier.FakePresenter
	events     *scrimevents.FakePublisher
	readyCheck *readycheck.Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := repository.NewFakeScrimRepository()
	acks := repository.NewFakeAckRepository(repo)
	log := logger.Nop()
	engine := lifecycle.NewEngine(repo, log)
	g := guard.New(repo, engine, log)
	notify := notifier.NewFakeNotifier()
	present := notifier.NewFakePresenter()
	events := scrimevents.NewFakePublisher()

	rc := readycheck.NewCoordinator(engine, g, notify, present, events, log, time.Minute)
	t.Cleanup(rc.Stop)
	cc := completion.NewCoordinator(repo, acks, engine, g, notify, present, events, log)

	return &fixture{
		service:    NewScrimService(repo, engine, g, rc, cc, notify, present, events, log),
		repo:       repo,
		notify:     notify,
		present:    present,
		events:     events,
		readyCheck: rc,
	}
}

func validInput(requesterID string) CreateScrimInput {
	return CreateScrimInput{
		RequesterID: requesterID,
		GuildID:     "guild-1",
		ChannelID:   "channel-1",
		TeamName:    "Spike Rush",
		MatchDate:   "2026-09-05 21:00",
		Format:      "bo3",
		Maps:        []string{"Ascent", "Haven", "Lotus"},
		Ranks:       []string{"Immortal", "Ascendant"},
		Server:      "Bahrain",
	}
}

func TestCreateScrim(t *testing.T) {
	f := newFixture(t)

	scrim, err := f.service.CreateScrim(context.Background(), validInput("alice"))
	require.NoError(t, err)

	assert.NotEmpty(t, scrim.ScrimID)
	assert.Equal(t, models.StatusOpen, scrim.Status)
	assert.Equal(t, "alice", scrim.RequesterID)
	assert.Contains(t, f.events.Subjects(), msg.ScrimCreated)
}

func TestCreateScrimValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateScrimInput)
	}{
		{"missing team name", func(i *CreateScrimInput) { i.TeamName = "  " }},
		{"missing match date", func(i *CreateScrimInput) { i.MatchDate = "" }},
		{"unknown format", func(i *CreateScrimInput) { i.Format = "bo5" }},
		{"no maps", func(i *CreateScrimInput) { i.Maps = nil }},
		{"unknown map", func(i *CreateScrimInput) { i.Maps = []string{"Fracture"} }},
		{"too many maps for bo1", func(i *CreateScrimInput) {
			i.Format = "bo1"
			i.Maps = []string{"Ascent", "Bind"}
		}},
		{"no ranks", func(i *CreateScrimInput) { i.Ranks = nil }},
		{"unknown rank", func(i *CreateScrimInput) { i.Ranks = []string{"Challenger"} }},
		{"unknown server", func(i *CreateScrimInput) { i.Server = "Frankfurt" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput("alice")
			tc.mutate(&input)

			_, err := f.service.CreateScrim(ctx, input)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
		})
	}
}

func TestCreateScrimEnforcesSingleActiveRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateScrim(ctx, validInput("alice"))
	require.NoError(t, err)

	_, err = f.service.CreateScrim(ctx, validInput("alice"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyActive))
}

func TestCreateAllowedAgainAfterTerminalState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.CreateScrim(ctx, validInput("alice"))
	require.NoError(t, err)

	_, err = f.service.CancelScrim(ctx, first.ScrimID, "alice")
	require.NoError(t, err)

	_, err = f.service.CreateScrim(ctx, validInput("alice"))
	assert.NoError(t, err)
}

func TestCancelScrimRequiresOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	scrim, err := f.service.CreateScrim(ctx, validInput("alice"))
	require.NoError(t, err)

	_, err = f.service.CancelScrim(ctx, scrim.ScrimID, "bob")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotOwner))

	cancelled, err := f.service.CancelScrim(ctx, scrim.ScrimID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Contains(t, f.events.Subjects(), msg.ScrimCancelled)
}

func TestGetActiveScrim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	active, err := f.service.GetActiveScrim(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, active)

	created, err := f.service.CreateScrim(ctx, validInput("alice"))
	require.NoError(t, err)

	active, err = f.service.GetActiveScrim(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, created.ScrimID, active.ScrimID)
}

// TestFullScrimLifecycle walks one scrim from creation through booking,
// ready check, and dual completion, checking the side effects at each
// stage. Bob's own open request has to fall when the booking lands.
func TestFullScrimLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	target, err := f.service.CreateScrim(ctx, validInput("alice"))
	require.NoError(t, err)

	bobsOwn, err := f.service.CreateScrim(ctx, validInput("bob"))
	require.NoError(t, err)

	pending, err := f.service.RequestBooking(ctx, target.ScrimID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, pending.Status)

	// Both parties pass the ready check.
	alicePrompt, ok := f.notify.PromptFor("alice")
	require.True(t, ok)
	bobPrompt, ok := f.notify.PromptFor("bob")
	require.True(t, ok)

	f.readyCheck.Acknowledge(ctx, target.ScrimID, alicePrompt.PromptID, "alice")
	f.readyCheck.Acknowledge(ctx, target.ScrimID, bobPrompt.PromptID, "bob")

	booked, err := f.service.GetScrim(ctx, target.ScrimID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBooked, booked.Status)
	assert.Equal(t, "bob", booked.CounterpartID)

	// Bob's own request fell to the cascade.
	own, err := f.service.GetScrim(ctx, bobsOwn.ScrimID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, own.Status)

	// Both parties confirm completion.
	result, err := f.service.ConfirmCompletion(ctx, target.ScrimID, "bob")
	require.NoError(t, err)
	assert.Equal(t, completion.Waiting, result)

	result, err = f.service.ConfirmCompletion(ctx, target.ScrimID, "alice")
	require.NoError(t, err)
	assert.Equal(t, completion.Completed, result)

	played, err := f.service.GetScrim(ctx, target.ScrimID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlayed, played.Status)

	// Both users are free to post again.
	_, err = f.service.CreateScrim(ctx, validInput("alice"))
	assert.NoError(t, err)
	_, err = f.service.CreateScrim(ctx, validInput("bob"))
	assert.NoError(t, err)

	subjects := f.events.Subjects()
	assert.Contains(t, subjects, msg.ScrimCreated)
	assert.Contains(t, subjects, msg.ScrimBooked)
	assert.Contains(t, subjects, msg.ScrimExpired)
	assert.Contains(t, subjects, msg.ScrimPlayed)
}

func TestBookingAbortWhenChallengerUnreachable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	target, err := f.service.CreateScrim(ctx, validInput("alice"))
	require.NoError(t, err)

	f.notify.Unreachable["bob"] = true

	_, err = f.service.RequestBooking(ctx, target.ScrimID, "bob")
	require.Error(t, err)

	scrim, err := f.service.GetScrim(ctx, target.ScrimID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, scrim.Status)
	assert.Empty(t, scrim.CounterpartID)
}

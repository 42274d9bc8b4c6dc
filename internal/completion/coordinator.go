package completion

import (
	"context"

	scrimerrors "github.com/ZayanAhmed07/SpikeLeagueScrim/internal/errors"
	scrimevents "github.com/ZayanAhmed07/SpikeLeagueScrim/internal/events"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/guard"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/lifecycle"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/notifier"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/repository"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/logger"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
)

// Result tells the caller where their confirmation left the scrim.
type Result int

const (
	// Waiting means the ack was recorded but the other party hasn't
	// confirmed yet.
	Waiting Result = iota
	// Completed means this confirmation was the second one and the scrim
	// is now played.
	Completed
)

// Coordinator collects the two completion confirmations a booked scrim
// needs before it counts as played. The ack insert and the counter bump
// are transactional, so two simultaneous confirms still produce exactly
// one played transition.
type Coordinator struct {
	scrims    repository.ScrimRepository
	acks      repository.AckRepository
	engine    *lifecycle.Engine
	guard     *guard.Guard
	notifier  notifier.Notifier
	presenter notifier.Presenter
	events    scrimevents.Publisher
	log       *logger.Logger
}

func NewCoordinator(
	scrims repository.ScrimRepository,
	acks repository.AckRepository,
	engine *lifecycle.Engine,
	g *guard.Guard,
	n notifier.Notifier,
	p notifier.Presenter,
	ev scrimevents.Publisher,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		scrims:    scrims,
		acks:      acks,
		engine:    engine,
		guard:     g,
		notifier:  n,
		presenter: p,
		events:    ev,
		log:       log,
	}
}

// Confirm records the actor's completion confirmation.
func (c *Coordinator) Confirm(ctx context.Context, scrimID, actorID string) (Result, error) {
	scrim, err := c.scrims.GetByID(ctx, scrimID)
	if err != nil {
		return Waiting, err
	}
	if scrim == nil {
		return Waiting, scrimerrors.ScrimNotFoundError(scrimID)
	}
	if !scrim.IsParticipant(actorID) {
		return Waiting, scrimerrors.NotParticipantError()
	}
	if scrim.Status != models.StatusBooked {
		if scrim.Status == models.StatusPlayed {
			// Both sides already confirmed. Repeating it is harmless.
			return Completed, nil
		}
		return Waiting, scrimerrors.ConflictError(scrimID, models.StatusBooked)
	}

	acked, err := c.acks.HasAcked(ctx, scrimID, actorID)
	if err != nil {
		return Waiting, err
	}
	if acked {
		return Waiting, scrimerrors.AlreadyConfirmedError()
	}

	inserted, err := c.acks.RecordAck(ctx, scrimID, actorID)
	if err != nil {
		return Waiting, err
	}
	if !inserted {
		return Waiting, scrimerrors.AlreadyConfirmedError()
	}

	c.log.Info("completion confirmed",
		"scrim_id", scrimID,
		"user_id", actorID)

	played, err := c.engine.MarkPlayed(ctx, scrimID)
	if err != nil {
		return Waiting, err
	}
	if played == nil {
		// Either the other ack hasn't landed yet, or it landed at the same
		// time and that confirmer won the played transition. Both read as
		// "recorded, wait for the close" to this actor.
		if current, err := c.scrims.GetByID(ctx, scrimID); err == nil && current != nil && current.Status == models.StatusPlayed {
			return Completed, nil
		}
		return Waiting, nil
	}

	c.closeOut(ctx, played)
	return Completed, nil
}

func (c *Coordinator) closeOut(ctx context.Context, played *models.Scrim) {
	// The counterpart isn't indexed as a requester on the played scrim, so
	// they may have opened a request of their own while this one was
	// booked. Those fall now.
	expired := c.guard.CascadeExpire(ctx, played.ScrimID, played.RequesterID, played.CounterpartID)
	for i := range expired {
		c.events.ScrimExpired(ctx, &expired[i])
		c.presenter.RemovePresentation(ctx, expired[i].ScrimID)
		c.notifier.NotifyUser(ctx, expired[i].RequesterID,
			"Your other open scrim request was closed because your scrim was completed.")
	}

	done := "Scrim complete. Both teams confirmed the match was played."
	c.notifier.NotifyUser(ctx, played.RequesterID, done)
	c.notifier.NotifyUser(ctx, played.CounterpartID, done)

	c.presenter.RemovePresentation(ctx, played.ScrimID)
	c.events.ScrimPlayed(ctx, played)
}

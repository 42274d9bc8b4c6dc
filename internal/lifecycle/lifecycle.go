package lifecycle

import (
	"context"

	scrimerrors "github.com/ZayanAhmed07/SpikeLeagueScrim/internal/errors"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/repository"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/logger"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
)

// validTransitions is the single source of truth for legal status moves.
// Everything the engine does is expressed as one of these edges.
var validTransitions = map[models.ScrimStatus][]models.ScrimStatus{
	models.StatusOpen:    {models.StatusPending, models.StatusCancelled, models.StatusExpired},
	models.StatusPending: {models.StatusBooked, models.StatusOpen},
	models.StatusBooked:  {models.StatusPlayed},
}

func legalTransition(from, to models.ScrimStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Engine drives scrim status transitions. Every move goes through a
// conditional write keyed on the current status, so two callers racing on
// the same scrim resolve to exactly one winner. The loser gets a CONFLICT.
type Engine struct {
	repo repository.ScrimRepository
	log  *logger.Logger
}

func NewEngine(repo repository.ScrimRepository, log *logger.Logger) *Engine {
	return &Engine{repo: repo, log: log}
}

// RequestBooking moves an open scrim to pending and attaches the
// challenger. Self-booking is rejected before touching the store; a scrim
// that left open in the meantime comes back as a CONFLICT.
func (e *Engine) RequestBooking(ctx context.Context, scrimID, challengerID string) (*models.Scrim, error) {
	scrim, err := e.repo.GetByID(ctx, scrimID)
	if err != nil {
		return nil, err
	}
	if scrim == nil {
		return nil, scrimerrors.ScrimNotFoundError(scrimID)
	}
	if scrim.RequesterID == challengerID {
		return nil, scrimerrors.SelfBookingError()
	}

	updated, err := e.repo.BeginBooking(ctx, scrimID, challengerID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, scrimerrors.ConflictError(scrimID, models.StatusOpen)
	}

	e.log.Info("scrim booking requested",
		"scrim_id", scrimID,
		"challenger_id", challengerID)
	return updated, nil
}

// ConfirmBooked finalizes a pending scrim after both parties acknowledged
// the ready check.
func (e *Engine) ConfirmBooked(ctx context.Context, scrimID string) (*models.Scrim, error) {
	return e.transition(ctx, scrimID, models.StatusPending, models.StatusBooked)
}

// RevertToOpen rolls a pending scrim back to open and clears the
// counterpart. A scrim that is no longer pending is left alone: the ready
// check outcome that beat us to it stands, so this returns (nil, nil)
// rather than an error.
func (e *Engine) RevertToOpen(ctx context.Context, scrimID string) (*models.Scrim, error) {
	updated, err := e.repo.ReopenFromPending(ctx, scrimID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		e.log.Debug("revert skipped, scrim no longer pending", "scrim_id", scrimID)
		return nil, nil
	}

	e.log.Info("scrim reverted to open", "scrim_id", scrimID)
	return updated, nil
}

// Cancel withdraws an open scrim at the requester's ask.
func (e *Engine) Cancel(ctx context.Context, scrimID string) (*models.Scrim, error) {
	return e.transition(ctx, scrimID, models.StatusOpen, models.StatusCancelled)
}

// Expire retires an open scrim that went stale or lost its requester to
// another booking.
func (e *Engine) Expire(ctx context.Context, scrimID string) (*models.Scrim, error) {
	return e.transition(ctx, scrimID, models.StatusOpen, models.StatusExpired)
}

// MarkPlayed closes a booked scrim once both completion acks are in. It
// returns (nil, nil) when the scrim already moved on, which the completion
// flow treats as the other confirmer having won the race.
func (e *Engine) MarkPlayed(ctx context.Context, scrimID string) (*models.Scrim, error) {
	updated, err := e.repo.MarkPlayedIfAcked(ctx, scrimID)
	if err != nil {
		return nil, err
	}
	if updated != nil {
		e.log.Info("scrim marked played", "scrim_id", scrimID)
	}
	return updated, nil
}

func (e *Engine) transition(ctx context.Context, scrimID string, from, to models.ScrimStatus) (*models.Scrim, error) {
	if !legalTransition(from, to) {
		return nil, scrimerrors.IllegalTransitionError(from, to)
	}

	updated, err := e.repo.TransitionStatus(ctx, scrimID, from, to)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, scrimerrors.ConflictError(scrimID, from)
	}

	e.log.Info("scrim status changed",
		"scrim_id", scrimID,
		"from", from.String(),
		"to", to.String())
	return updated, nil
}

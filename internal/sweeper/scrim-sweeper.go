package sweeper

import (
	"context"
	"time"

	scrimevents "github.com/ZayanAhmed07/SpikeLeagueScrim/internal/events"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/lifecycle"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/notifier"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/repository"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/logger"
)

// Sweeper expires open scrims nobody booked within the staleness window.
// A failure on one record never blocks the rest of the sweep.
type Sweeper struct {
	repo       repository.ScrimRepository
	engine     *lifecycle.Engine
	notifier   notifier.Notifier
	presenter  notifier.Presenter
	events     scrimevents.Publisher
	log        *logger.Logger
	staleAfter time.Duration
	clock      func() time.Time
}

func New(
	repo repository.ScrimRepository,
	engine *lifecycle.Engine,
	n notifier.Notifier,
	p notifier.Presenter,
	ev scrimevents.Publisher,
	log *logger.Logger,
	staleAfter time.Duration,
) *Sweeper {
	return &Sweeper{
		repo:       repo,
		engine:     engine,
		notifier:   n,
		presenter:  p,
		events:     ev,
		log:        log,
		staleAfter: staleAfter,
		clock:      time.Now,
	}
}

// Sweep expires every open scrim created before now minus the staleness
// window and tells each requester.
func (s *Sweeper) Sweep(ctx context.Context) {
	cutoff := s.clock().UTC().Add(-s.staleAfter)

	stale, err := s.repo.ListOpenOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error("expiry sweep listing failed", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	s.log.Info("expiry sweep found stale scrims",
		"count", len(stale),
		"cutoff", cutoff.Format(time.RFC3339))

	expiredCount := 0
	for i := range stale {
		scrim := &stale[i]

		expired, err := s.engine.Expire(ctx, scrim.ScrimID)
		if err != nil {
			// A conflict means the scrim got booked or cancelled between
			// the listing and our write. Leave it alone.
			s.log.Warn("expiry sweep skipped scrim",
				"scrim_id", scrim.ScrimID,
				"error", err)
			continue
		}
		expiredCount++

		s.notifier.NotifyUser(ctx, expired.RequesterID,
			"Your scrim request expired because nobody booked it in time. Feel free to post a new one.")
		s.presenter.RemovePresentation(ctx, expired.ScrimID)
		s.events.ScrimExpired(ctx, expired)
	}

	s.log.Info("expiry sweep finished",
		"stale", len(stale),
		"expired", expiredCount)
}

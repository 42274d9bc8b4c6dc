package guard

import (
	"context"
	"sync"

	scrimerrors "github.com/ZayanAhmed07/SpikeLeagueScrim/internal/errors"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/lifecycle"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/repository"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/logger"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
)

// Guard enforces the one-active-request-per-user rule. The check-then-create
// window on scrim creation is closed with a per-user critical section, and
// booking a scrim cascades expiry over the participants' other open requests.
type Guard struct {
	repo   repository.ScrimRepository
	engine *lifecycle.Engine
	log    *logger.Logger

	userLocks sync.Map
}

func New(repo repository.ScrimRepository, engine *lifecycle.Engine, log *logger.Logger) *Guard {
	return &Guard{repo: repo, engine: engine, log: log}
}

// LockUser serializes scrim creation per user. The returned func releases
// the lock. Distinct users never contend.
func (g *Guard) LockUser(userID string) func() {
	actual, _ := g.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// EnsureNoActive fails with ALREADY_ACTIVE when the user has a scrim in a
// non-terminal state. Call it while holding the user's lock.
func (g *Guard) EnsureNoActive(ctx context.Context, userID string) error {
	active, err := g.repo.GetActiveForUser(ctx, userID)
	if err != nil {
		return err
	}
	if active != nil {
		return scrimerrors.AlreadyActiveError()
	}
	return nil
}

// CascadeExpire expires every open scrim owned by the given users except
// the one that triggered the cascade. A record that moves out of open
// before we reach it is skipped; a store error on one record is logged and
// does not stop the rest. Returns the scrims that were actually expired.
func (g *Guard) CascadeExpire(ctx context.Context, triggerScrimID string, userIDs ...string) []models.Scrim {
	var expired []models.Scrim

	for _, userID := range userIDs {
		open, err := g.repo.ListOpenForUser(ctx, userID, triggerScrimID)
		if err != nil {
			g.log.Error("cascade expiry listing failed",
				"user_id", userID,
				"trigger_scrim_id", triggerScrimID,
				"error", err)
			continue
		}

		for _, scrim := range open {
			updated, err := g.engine.Expire(ctx, scrim.ScrimID)
			if err != nil {
				// A conflict just means someone else already moved it.
				g.log.Warn("cascade expiry skipped scrim",
					"scrim_id", scrim.ScrimID,
					"user_id", userID,
					"error", err)
				continue
			}
			expired = append(expired, *updated)
		}
	}

	return expired
}

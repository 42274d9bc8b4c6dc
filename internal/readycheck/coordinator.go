package readycheck

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/ZayanAhmed07/SpikeLeagueScrim/errors"
	scrimevents "github.com/ZayanAhmed07/SpikeLeagueScrim/internal/events"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/guard"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/lifecycle"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/notifier"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/logger"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
)

// Coordinator runs the ready check that stands between a booking request
// and a booked scrim. Both parties get a prompt and must acknowledge
// within the timeout; otherwise the scrim reverts to open. Only acks
// matching the two issued prompts count, and duplicates are ignored.
type Coordinator struct {
	engine    *lifecycle.Engine
	guard     *guard.Guard
	notifier  notifier.Notifier
	presenter notifier.Presenter
	events    scrimevents.Publisher
	log       *logger.Logger
	timeout   time.Duration

	mu     sync.Mutex
	checks map[string]*check

	wg       sync.WaitGroup
	stopChan chan struct{}
}

type check struct {
	scrim   *models.Scrim
	prompts map[string]string // prompt id -> user id
	acked   map[string]bool   // user id -> acknowledged
	done    chan struct{}
}

func NewCoordinator(
	engine *lifecycle.Engine,
	g *guard.Guard,
	n notifier.Notifier,
	p notifier.Presenter,
	ev scrimevents.Publisher,
	log *logger.Logger,
	timeout time.Duration,
) *Coordinator {
	return &Coordinator{
		engine:    engine,
		guard:     g,
		notifier:  n,
		presenter: p,
		events:    ev,
		log:       log,
		timeout:   timeout,
		checks:    make(map[string]*check),
		stopChan:  make(chan struct{}),
	}
}

// Begin prompts both parties of a freshly pending scrim. The check is
// registered before either prompt goes out, so an ack can never arrive
// ahead of the bookkeeping that accepts it. When either prompt can't be
// delivered there is no point waiting: the scrim reverts to open
// immediately and whoever was reachable is told.
func (c *Coordinator) Begin(ctx context.Context, scrim *models.Scrim) error {
	prompt := fmt.Sprintf("Ready check for your scrim on %s: confirm within %d minutes.",
		scrim.MatchDate, int(c.timeout.Minutes()))

	requesterPrompt := uuid.New().String()
	counterpartPrompt := uuid.New().String()

	chk := &check{
		scrim: scrim,
		prompts: map[string]string{
			requesterPrompt:   scrim.RequesterID,
			counterpartPrompt: scrim.CounterpartID,
		},
		acked: make(map[string]bool),
		done:  make(chan struct{}),
	}

	c.mu.Lock()
	c.checks[scrim.ScrimID] = chk
	c.mu.Unlock()

	if err := c.notifier.RequestAcknowledgment(ctx, scrim.ScrimID, scrim.RequesterID, requesterPrompt, prompt); err != nil {
		c.deregister(scrim.ScrimID)
		c.abortUndeliverable(ctx, scrim, scrim.CounterpartID)
		return apperrors.Wrap(err, apperrors.CodeEventPublishError,
			"could not reach the scrim requester for the ready check")
	}

	if err := c.notifier.RequestAcknowledgment(ctx, scrim.ScrimID, scrim.CounterpartID, counterpartPrompt, prompt); err != nil {
		c.deregister(scrim.ScrimID)
		c.abortUndeliverable(ctx, scrim, scrim.RequesterID)
		return apperrors.Wrap(err, apperrors.CodeEventPublishError,
			"could not reach the challenger for the ready check")
	}

	c.wg.Add(1)
	go c.watch(scrim.ScrimID, chk)

	c.log.Info("ready check started",
		"scrim_id", scrim.ScrimID,
		"requester_id", scrim.RequesterID,
		"challenger_id", scrim.CounterpartID,
		"timeout", c.timeout.String())
	return nil
}

func (c *Coordinator) deregister(scrimID string) {
	c.mu.Lock()
	delete(c.checks, scrimID)
	c.mu.Unlock()
}

// Acknowledge records one party's ready-check response. Acks for unknown
// prompts, finished checks, or already-acked users are dropped.
func (c *Coordinator) Acknowledge(ctx context.Context, scrimID, promptID, userID string) {
	c.mu.Lock()
	chk, ok := c.checks[scrimID]
	if !ok {
		c.mu.Unlock()
		c.log.Debug("ack for unknown ready check", "scrim_id", scrimID, "prompt_id", promptID)
		return
	}

	owner, known := chk.prompts[promptID]
	if !known || owner != userID || chk.acked[userID] {
		c.mu.Unlock()
		return
	}

	chk.acked[userID] = true
	complete := len(chk.acked) == len(chk.prompts)
	if complete {
		delete(c.checks, scrimID)
		close(chk.done)
	}
	c.mu.Unlock()

	c.log.Info("ready check acknowledged",
		"scrim_id", scrimID,
		"user_id", userID,
		"complete", complete)

	if complete {
		c.finalize(ctx, chk.scrim)
	}
}

// watch reverts the scrim when the deadline passes before both acks arrive.
func (c *Coordinator) watch(scrimID string, chk *check) {
	defer c.wg.Done()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-chk.done:
		return
	case <-c.stopChan:
		return
	case <-timer.C:
	}

	c.mu.Lock()
	if _, still := c.checks[scrimID]; !still {
		c.mu.Unlock()
		return
	}
	delete(c.checks, scrimID)
	c.mu.Unlock()

	c.expire(chk.scrim)
}

func (c *Coordinator) finalize(ctx context.Context, pending *models.Scrim) {
	booked, err := c.engine.ConfirmBooked(ctx, pending.ScrimID)
	if err != nil {
		// The timeout or a cancel beat us. Nothing to finalize.
		c.log.Warn("ready check completed but booking lost the race",
			"scrim_id", pending.ScrimID,
			"error", err)
		return
	}

	expired := c.guard.CascadeExpire(ctx, booked.ScrimID, booked.RequesterID, booked.CounterpartID)
	for i := range expired {
		c.events.ScrimExpired(ctx, &expired[i])
		c.presenter.RemovePresentation(ctx, expired[i].ScrimID)
		c.notifier.NotifyUser(ctx, expired[i].RequesterID,
			"Your other open scrim request was closed because your scrim got booked.")
	}

	booking := fmt.Sprintf("Your scrim on %s is booked. Good luck!", booked.MatchDate)
	c.notifier.NotifyUser(ctx, booked.RequesterID, booking)
	c.notifier.NotifyUser(ctx, booked.CounterpartID, booking)

	c.presenter.UpdatePresentation(ctx, booked, "Booked", true)
	c.events.ScrimBooked(ctx, booked)
}

// expire handles the timeout path: back to open, counterpart detached.
func (c *Coordinator) expire(pending *models.Scrim) {
	ctx := context.Background()

	reverted, err := c.engine.RevertToOpen(ctx, pending.ScrimID)
	if err != nil {
		c.log.Error("ready check timeout revert failed",
			"scrim_id", pending.ScrimID,
			"error", err)
		return
	}
	if reverted == nil {
		return
	}

	c.log.Info("ready check timed out", "scrim_id", pending.ScrimID)

	timeoutMsg := "The ready check expired, so the scrim was not booked."
	c.notifier.NotifyUser(ctx, pending.RequesterID, timeoutMsg+" Your request is open again.")
	c.notifier.NotifyUser(ctx, pending.CounterpartID, timeoutMsg)

	c.presenter.UpdatePresentation(ctx, reverted, "Open", false)
	c.events.ScrimReverted(ctx, reverted)
}

// abortUndeliverable rolls back a booking whose ready check never started.
func (c *Coordinator) abortUndeliverable(ctx context.Context, pending *models.Scrim, reachableUserID string) {
	reverted, err := c.engine.RevertToOpen(ctx, pending.ScrimID)
	if err != nil {
		c.log.Error("undeliverable ready check revert failed",
			"scrim_id", pending.ScrimID,
			"error", err)
		return
	}

	if reachableUserID != "" {
		c.notifier.NotifyUser(ctx, reachableUserID,
			"The other party could not be reached, so the booking was cancelled.")
	}

	if reverted != nil {
		c.events.ScrimReverted(ctx, reverted)
	}
}

// Stop abandons in-flight ready checks and reverts their scrims to open,
// so a restart doesn't leave bookings stuck in pending forever.
func (c *Coordinator) Stop() {
	close(c.stopChan)
	c.wg.Wait()

	c.mu.Lock()
	remaining := make([]*models.Scrim, 0, len(c.checks))
	for id, chk := range c.checks {
		remaining = append(remaining, chk.scrim)
		delete(c.checks, id)
	}
	c.mu.Unlock()

	ctx := context.Background()
	for _, scrim := range remaining {
		if _, err := c.engine.RevertToOpen(ctx, scrim.ScrimID); err != nil {
			c.log.Error("shutdown revert failed", "scrim_id", scrim.ScrimID, "error", err)
		}
	}
}

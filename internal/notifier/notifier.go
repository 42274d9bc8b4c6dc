package notifier

import (
	"context"

	"github.com/ZayanAhmed07/SpikeLeagueScrim/cache"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/events"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/logger"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/natsjetstream"
)

// Notifier carries direct messages to users through the gateway. NotifyUser
// is best effort: a user who can't be reached doesn't fail the operation
// that triggered the message. RequestAcknowledgment is the exception, since
// an undeliverable ready-check prompt has to abort the booking. The caller
// supplies the prompt id so it can be on record before the prompt is ever
// visible to the user.
type Notifier interface {
	NotifyUser(ctx context.Context, userID, message string) bool
	RequestAcknowledgment(ctx context.Context, scrimID, userID, promptID, prompt string) error
}

type natsNotifier struct {
	publisher *natsjetstream.Publisher
	log       *logger.Logger
}

func NewNotifier(publisher *natsjetstream.Publisher, log *logger.Logger) Notifier {
	return &natsNotifier{publisher: publisher, log: log}
}

func (n *natsNotifier) NotifyUser(ctx context.Context, userID, message string) bool {
	appErr := n.publisher.PublishJSON(ctx, events.NotifyUserDM, events.UserNotification{
		UserID:  userID,
		Message: message,
	})
	if appErr != nil {
		n.log.Warn("user notification undeliverable",
			"user_id", userID,
			"error", appErr)
		return false
	}
	return true
}

// RequestAcknowledgment issues a ready-check prompt. The gateway echoes
// the prompt id back with the user's ack.
func (n *natsNotifier) RequestAcknowledgment(ctx context.Context, scrimID, userID, promptID, prompt string) error {
	appErr := n.publisher.PublishJSON(ctx, events.NotifyReadyCheck, events.ReadyCheckPrompt{
		PromptID: promptID,
		ScrimID:  scrimID,
		UserID:   userID,
		Prompt:   prompt,
	})
	if appErr != nil {
		return appErr
	}
	return nil
}

// Presenter keeps the public listing message for a scrim in sync with its
// state. Both calls are best effort.
type Presenter interface {
	UpdatePresentation(ctx context.Context, scrim *models.Scrim, statusText string, removeInteractivity bool) bool
	RemovePresentation(ctx context.Context, scrimID string) bool
}

// PresentationStore resolves which chat message presents a scrim. The
// Redis-backed cache.PresentationRepo satisfies it.
type PresentationStore interface {
	Get(ctx context.Context, scrimID string) (*cache.PresentationRef, error)
	Delete(ctx context.Context, scrimID string) error
}

type natsPresenter struct {
	publisher *natsjetstream.Publisher
	store     PresentationStore
	log       *logger.Logger
}

func NewPresenter(publisher *natsjetstream.Publisher, store PresentationStore, log *logger.Logger) Presenter {
	return &natsPresenter{publisher: publisher, store: store, log: log}
}

func (p *natsPresenter) UpdatePresentation(ctx context.Context, scrim *models.Scrim, statusText string, removeInteractivity bool) bool {
	ref, err := p.store.Get(ctx, scrim.ScrimID)
	if err != nil {
		p.log.Warn("presentation lookup failed",
			"scrim_id", scrim.ScrimID,
			"error", err)
		return false
	}
	if ref == nil {
		// Nothing posted for this scrim yet.
		return false
	}

	appErr := p.publisher.PublishJSON(ctx, events.PresentationUpdate, events.PresentationChange{
		ScrimID:             scrim.ScrimID,
		ChannelID:           ref.ChannelID,
		MessageID:           ref.MessageID,
		StatusText:          statusText,
		RemoveInteractivity: removeInteractivity,
	})
	if appErr != nil {
		p.log.Warn("presentation update undeliverable",
			"scrim_id", scrim.ScrimID,
			"error", appErr)
		return false
	}
	return true
}

func (p *natsPresenter) RemovePresentation(ctx context.Context, scrimID string) bool {
	ref, err := p.store.Get(ctx, scrimID)
	if err != nil {
		p.log.Warn("presentation lookup failed",
			"scrim_id", scrimID,
			"error", err)
		return false
	}
	if ref == nil {
		return false
	}

	appErr := p.publisher.PublishJSON(ctx, events.PresentationRemove, events.PresentationChange{
		ScrimID:   scrimID,
		ChannelID: ref.ChannelID,
		MessageID: ref.MessageID,
	})
	if appErr != nil {
		p.log.Warn("presentation removal undeliverable",
			"scrim_id", scrimID,
			"error", appErr)
		return false
	}

	if err := p.store.Delete(ctx, scrimID); err != nil {
		p.log.Warn("presentation handle cleanup failed",
			"scrim_id", scrimID,
			"error", err)
	}
	return true
}

package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/ZayanAhmed07/SpikeLeagueScrim/cache"
	apperrors "github.com/ZayanAhmed07/SpikeLeagueScrim/errors"
	msg "github.com/ZayanAhmed07/SpikeLeagueScrim/events"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/completion"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/notifier"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/readycheck"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/service"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/logger"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/natsjetstream"
)

// NATSHandler consumes gateway traffic: scrim commands on one stream and
// gateway callbacks (ready-check acks, posted presentations) on another.
// Domain failures are reported back to the acting user as a direct message
// and the message is acked; only infrastructure errors trigger redelivery.
type NATSHandler struct {
	subscriber    *natsjetstream.Subscriber
	service       service.ScrimService
	readyCheck    *readycheck.Coordinator
	presentations *cache.PresentationRepo
	notifier      notifier.Notifier
	log           *logger.Logger
}

func NewNATSHandler(
	subscriber *natsjetstream.Subscriber,
	svc service.ScrimService,
	rc *readycheck.Coordinator,
	presentations *cache.PresentationRepo,
	n notifier.Notifier,
	log *logger.Logger,
) *NATSHandler {
	return &NATSHandler{
		subscriber:    subscriber,
		service:       svc,
		readyCheck:    rc,
		presentations: presentations,
		notifier:      n,
		log:           log,
	}
}

func (h *NATSHandler) Start(ctx context.Context) error {
	if err := h.subscriber.Subscribe(ctx, natsjetstream.ConsumerConfig{
		StreamName:   msg.ScrimCommandsStream,
		ConsumerName: "scrim-core-commands",
		Durable:      "scrim-core-commands",
		AckPolicy:    "explicit",
	}, h.handleCommand); err != nil {
		return fmt.Errorf("failed to subscribe to scrim commands: %w", err)
	}

	if err := h.subscriber.Subscribe(ctx, natsjetstream.ConsumerConfig{
		StreamName:   msg.GatewayEventsStream,
		ConsumerName: "scrim-core-gateway",
		Durable:      "scrim-core-gateway",
		AckPolicy:    "explicit",
	}, h.handleGatewayEvent); err != nil {
		return fmt.Errorf("failed to subscribe to gateway events: %w", err)
	}

	return nil
}

func (h *NATSHandler) handleCommand(ctx context.Context, m jetstream.Msg) error {
	switch m.Subject() {
	case msg.CommandCreateScrim:
		return h.handleCreate(ctx, m)
	case msg.CommandBookScrim:
		return h.handleBook(ctx, m)
	case msg.CommandCancelScrim:
		return h.handleCancel(ctx, m)
	case msg.CommandConfirmScrim:
		return h.handleConfirm(ctx, m)
	default:
		h.log.Warn("unknown scrim command", "subject", m.Subject())
		return nil
	}
}

func (h *NATSHandler) handleCreate(ctx context.Context, m jetstream.Msg) error {
	var cmd msg.CreateScrimCommand
	if err := natsjetstream.UnmarshalJSON(m, &cmd); err != nil {
		h.log.Error("malformed create command", "error", err)
		return nil
	}

	scrim, err := h.service.CreateScrim(ctx, service.CreateScrimInput{
		RequesterID: cmd.RequesterID,
		GuildID:     cmd.GuildID,
		ChannelID:   cmd.ChannelID,
		TeamName:    cmd.TeamName,
		MatchDate:   cmd.MatchDate,
		Format:      cmd.Format,
		Maps:        cmd.Maps,
		Ranks:       cmd.Ranks,
		Server:      cmd.Server,
	})
	if err != nil {
		return h.reportFailure(ctx, cmd.RequesterID, err)
	}

	h.notifier.NotifyUser(ctx, scrim.RequesterID,
		fmt.Sprintf("Your scrim request for %s is posted.", scrim.MatchDate))
	return nil
}

func (h *NATSHandler) handleBook(ctx context.Context, m jetstream.Msg) error {
	var cmd msg.BookScrimCommand
	if err := natsjetstream.UnmarshalJSON(m, &cmd); err != nil {
		h.log.Error("malformed book command", "error", err)
		return nil
	}

	if _, err := h.service.RequestBooking(ctx, cmd.ScrimID, cmd.ChallengerID); err != nil {
		return h.reportFailure(ctx, cmd.ChallengerID, err)
	}
	return nil
}

func (h *NATSHandler) handleCancel(ctx context.Context, m jetstream.Msg) error {
	var cmd msg.CancelScrimCommand
	if err := natsjetstream.UnmarshalJSON(m, &cmd); err != nil {
		h.log.Error("malformed cancel command", "error", err)
		return nil
	}

	if _, err := h.service.CancelScrim(ctx, cmd.ScrimID, cmd.UserID); err != nil {
		return h.reportFailure(ctx, cmd.UserID, err)
	}

	h.notifier.NotifyUser(ctx, cmd.UserID, "Your scrim request was cancelled.")
	return nil
}

func (h *NATSHandler) handleConfirm(ctx context.Context, m jetstream.Msg) error {
	var cmd msg.ConfirmScrimCommand
	if err := natsjetstream.UnmarshalJSON(m, &cmd); err != nil {
		h.log.Error("malformed confirm command", "error", err)
		return nil
	}

	result, err := h.service.ConfirmCompletion(ctx, cmd.ScrimID, cmd.UserID)
	if err != nil {
		return h.reportFailure(ctx, cmd.UserID, err)
	}

	if result == completion.Waiting {
		h.notifier.NotifyUser(ctx, cmd.UserID,
			"Confirmation recorded. The scrim closes once the other party confirms too.")
	}
	return nil
}

func (h *NATSHandler) handleGatewayEvent(ctx context.Context, m jetstream.Msg) error {
	switch m.Subject() {
	case msg.GatewayReadyCheckAck:
		var ack msg.ReadyCheckAck
		if err := natsjetstream.UnmarshalJSON(m, &ack); err != nil {
			h.log.Error("malformed ready check ack", "error", err)
			return nil
		}
		h.readyCheck.Acknowledge(ctx, ack.ScrimID, ack.PromptID, ack.UserID)
		return nil

	case msg.GatewayPresentationPosted:
		var posted msg.PresentationPosted
		if err := natsjetstream.UnmarshalJSON(m, &posted); err != nil {
			h.log.Error("malformed presentation callback", "error", err)
			return nil
		}
		if err := h.presentations.Set(ctx, posted.ScrimID, cache.PresentationRef{
			ChannelID: posted.ChannelID,
			MessageID: posted.MessageID,
		}); err != nil {
			return fmt.Errorf("failed to store presentation handle: %w", err)
		}
		return nil

	default:
		h.log.Warn("unknown gateway event", "subject", m.Subject())
		return nil
	}
}

// reportFailure turns a domain error into a direct message to the acting
// user and swallows it, so the command isn't redelivered. Anything else
// bubbles up for a retry.
func (h *NATSHandler) reportFailure(ctx context.Context, userID string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.notifier.NotifyUser(ctx, userID, appErr.Message)
		return nil
	}
	return err
}

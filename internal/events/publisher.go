package events

import (
	"context"
	"time"

	msg "github.com/ZayanAhmed07/SpikeLeagueScrim/events"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/logger"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/natsjetstream"
)

// Publisher emits scrim lifecycle events. Publishing is best effort: the
// state change already committed, so a broker hiccup is logged and dropped
// rather than failing the operation.
type Publisher interface {
	ScrimCreated(ctx context.Context, scrim *models.Scrim)
	ScrimBooked(ctx context.Context, scrim *models.Scrim)
	ScrimReverted(ctx context.Context, scrim *models.Scrim)
	ScrimCancelled(ctx context.Context, scrim *models.Scrim)
	ScrimExpired(ctx context.Context, scrim *models.Scrim)
	ScrimPlayed(ctx context.Context, scrim *models.Scrim)
}

type natsPublisher struct {
	publisher *natsjetstream.Publisher
	log       *logger.Logger
}

func NewPublisher(publisher *natsjetstream.Publisher, log *logger.Logger) Publisher {
	return &natsPublisher{publisher: publisher, log: log}
}

func (p *natsPublisher) ScrimCreated(ctx context.Context, scrim *models.Scrim) {
	p.publish(ctx, msg.ScrimCreated, scrim)
}

func (p *natsPublisher) ScrimBooked(ctx context.Context, scrim *models.Scrim) {
	p.publish(ctx, msg.ScrimBooked, scrim)
}

func (p *natsPublisher) ScrimReverted(ctx context.Context, scrim *models.Scrim) {
	p.publish(ctx, msg.ScrimReverted, scrim)
}

func (p *natsPublisher) ScrimCancelled(ctx context.Context, scrim *models.Scrim) {
	p.publish(ctx, msg.ScrimCancelled, scrim)
}

func (p *natsPublisher) ScrimExpired(ctx context.Context, scrim *models.Scrim) {
	p.publish(ctx, msg.ScrimExpired, scrim)
}

func (p *natsPublisher) ScrimPlayed(ctx context.Context, scrim *models.Scrim) {
	p.publish(ctx, msg.ScrimPlayed, scrim)
}

func (p *natsPublisher) publish(ctx context.Context, subject string, scrim *models.Scrim) {
	appErr := p.publisher.PublishJSON(ctx, subject, msg.ScrimStatusChanged{
		ScrimID:       scrim.ScrimID,
		RequesterID:   scrim.RequesterID,
		CounterpartID: scrim.CounterpartID,
		Status:        scrim.Status.String(),
		TimeStamp:     time.Now().Unix(),
	})
	if appErr != nil {
		p.log.Error("failed to publish scrim event",
			"subject", subject,
			"scrim_id", scrim.ScrimID,
			"error", appErr)
	}
}

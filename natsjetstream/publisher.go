package natsjetstream

import (
	"context"
	"encoding/json"

	apperrors "github.com/ZayanAhmed07/SpikeLeagueScrim/errors"
)

type Publisher struct {
	client *Client
}

func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) PublishJSON(ctx context.Context, subject string, msg interface{}) *apperrors.AppError {
	data, err := json.Marshal(msg)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeObjectMarshalError, "failed to marshal message")
	}

	return p.Publish(ctx, subject, data)
}

func (p *Publisher) Publish(ctx context.Context, subject string, data []byte) *apperrors.AppError {
	_, err := p.client.js.Publish(ctx, subject, data)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeEventPublishError, "failed to publish message")
	}
	return nil
}

package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// PresentationRepo maps a scrim to the chat message that presents it
// publicly. The gateway reports the message it posted; the core needs the
// mapping whenever it edits or removes the presentation.
type PresentationRepo struct {
	client *redis.Client
}

type PresentationRef struct {
	ChannelID string
	MessageID string
}

func NewPresentationRepo(client *redis.Client) *PresentationRepo {
	return &PresentationRepo{client: client}
}

func presentationKey(scrimID string) string {
	return fmt.Sprintf("presentation:scrim:%s", scrimID)
}

func (r *PresentationRepo) Set(ctx context.Context, scrimID string, ref PresentationRef) error {
	return r.client.HSet(ctx, presentationKey(scrimID), map[string]interface{}{
		"channel_id": ref.ChannelID,
		"message_id": ref.MessageID,
	}).Err()
}

func (r *PresentationRepo) Get(ctx context.Context, scrimID string) (*PresentationRef, error) {
	values, err := r.client.HGetAll(ctx, presentationKey(scrimID)).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}

	return &PresentationRef{
		ChannelID: values["channel_id"],
		MessageID: values["message_id"],
	}, nil
}

func (r *PresentationRepo) Delete(ctx context.Context, scrimID string) error {
	return r.client.Del(ctx, presentationKey(scrimID)).Err()
}

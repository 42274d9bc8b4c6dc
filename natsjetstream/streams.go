package natsjetstream

import (
	"context"

	"github.com/nats-io/nats.go/jetstream"

	apperrors "github.com/ZayanAhmed07/SpikeLeagueScrim/errors"
)

// EnsureStream creates the stream or updates its subject set if it already
// exists. Safe to call on every startup.
func (c *Client) EnsureStream(ctx context.Context, name string, subjects []string) *apperrors.AppError {
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  subjects,
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to ensure stream "+name)
	}
	return nil
}

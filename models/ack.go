package models

import "time"

// CompletionAck records that one participant confirmed the match was
// played. At most one exists per (scrim, user); acks are kept after the
// scrim reaches played as an audit trail.
type CompletionAck struct {
	ScrimID     string    `dynamodbav:"scrim_id"`
	UserID      string    `dynamodbav:"user_id"`
	ConfirmedAt time.Time `dynamodbav:"confirmed_at"`

	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
}

package models

import (
	"fmt"
	"strings"
	"time"
)

type Scrim struct {
	ScrimID       string      `dynamodbav:"scrim_id"`
	RequesterID   string      `dynamodbav:"requester_id"`
	CounterpartID string      `dynamodbav:"counterpart_id,omitempty"`
	GuildID       string      `dynamodbav:"guild_id"`
	ChannelID     string      `dynamodbav:"channel_id"`
	TeamName      string      `dynamodbav:"team_name"`
	MatchDate     string      `dynamodbav:"match_date"`
	Format        MatchFormat `dynamodbav:"format"`
	Maps          []string    `dynamodbav:"maps"`
	Ranks         []string    `dynamodbav:"ranks"`
	Server        string      `dynamodbav:"server"`
	Status        ScrimStatus `dynamodbav:"scrim_status"`
	AckCount      int         `dynamodbav:"ack_count"`
	CreatedAt     time.Time   `dynamodbav:"created_at"`
	UpdatedAt     time.Time   `dynamodbav:"updated_at"`

	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`

	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`

	GSI2PK string `dynamodbav:"GSI2PK"`
	GSI2SK string `dynamodbav:"GSI2SK"`
}

type ScrimStatus string

const (
	StatusOpen      ScrimStatus = "open"
	StatusPending   ScrimStatus = "pending"
	StatusBooked    ScrimStatus = "booked"
	StatusPlayed    ScrimStatus = "played"
	StatusCancelled ScrimStatus = "cancelled"
	StatusExpired   ScrimStatus = "expired"
)

func (s ScrimStatus) String() string {
	return string(s)
}

// Terminal reports whether the status ends the scrim lifecycle. A user with
// only terminal scrims has no active request.
func (s ScrimStatus) Terminal() bool {
	switch s {
	case StatusPlayed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// IsParticipant reports whether the user is the requester or the booked
// counterpart of this scrim.
func (s *Scrim) IsParticipant(userID string) bool {
	return userID == s.RequesterID || (s.CounterpartID != "" && userID == s.CounterpartID)
}

// Key handlers

func ScrimPK(scrimID string) string {
	return fmt.Sprintf("SCRIM#%s", scrimID)
}

func MetaSK() string {
	return "META"
}

func AckSK(userID string) string {
	return fmt.Sprintf("ACK#%s", userID)
}

func AckSKPrefix() string {
	return "ACK#"
}

func StatusGSI1PK(status ScrimStatus) string {
	return fmt.Sprintf("STATUS#%s", status)
}

func CreatedGSI1SK(createdAt string) string {
	return fmt.Sprintf("CREATED#%s", createdAt)
}

func RequesterGSI2PK(userID string) string {
	return fmt.Sprintf("USER#%s", userID)
}

func ExtractScrimID(pk string) (string, error) {
	if !strings.HasPrefix(pk, "SCRIM#") {
		return "", fmt.Errorf("invalid scrim PK format: %s", pk)
	}
	return strings.TrimPrefix(pk, "SCRIM#"), nil
}

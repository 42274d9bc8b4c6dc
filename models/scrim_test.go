package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalStatuses(t *testing.T) {
	for _, status := range []ScrimStatus{StatusPlayed, StatusCancelled, StatusExpired} {
		assert.True(t, status.Terminal(), "%s should be terminal", status)
	}
	for _, status := range []ScrimStatus{StatusOpen, StatusPending, StatusBooked} {
		assert.False(t, status.Terminal(), "%s should not be terminal", status)
	}
}

func TestIsParticipant(t *testing.T) {
	scrim := &Scrim{RequesterID: "alice", CounterpartID: "bob"}

	assert.True(t, scrim.IsParticipant("alice"))
	assert.True(t, scrim.IsParticipant("bob"))
	assert.False(t, scrim.IsParticipant("mallory"))

	// No counterpart attached yet: an empty user id must not match.
	open := &Scrim{RequesterID: "alice"}
	assert.False(t, open.IsParticipant(""))
}

func TestMatchFormatMaps(t *testing.T) {
	assert.Equal(t, 1, BestOfOne.MaxMaps())
	assert.Equal(t, 3, BestOfThree.MaxMaps())
	assert.True(t, BestOfOne.Valid())
	assert.True(t, BestOfThree.Valid())
	assert.False(t, MatchFormat("bo5").Valid())
}

func TestCatalogValidation(t *testing.T) {
	assert.True(t, ValidMap("Ascent"))
	assert.False(t, ValidMap("ascent"))
	assert.True(t, ValidRank("Radiant"))
	assert.False(t, ValidRank("Challenger"))
	assert.True(t, ValidServer("Dubai"))
	assert.False(t, ValidServer("Frankfurt"))
}

func TestExtractScrimID(t *testing.T) {
	id, err := ExtractScrimID("SCRIM#abc-123")
	assert.NoError(t, err)
	assert.Equal(t, "abc-123", id)

	_, err = ExtractScrimID("USER#abc")
	assert.Error(t, err)
}

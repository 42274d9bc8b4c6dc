package events

const (
	// Streams
	ScrimCommandsStream = "SCRIM_COMMANDS"
	GatewayEventsStream = "GATEWAY_EVENTS"
	ScrimEventsStream   = "SCRIM_EVENTS"

	// Commands from the gateway (chat bot) layer
	CommandCreateScrim  = "commands.scrim.create"
	CommandBookScrim    = "commands.scrim.book"
	CommandCancelScrim  = "commands.scrim.cancel"
	CommandConfirmScrim = "commands.scrim.complete"

	// Gateway events consumed by the core
	GatewayReadyCheckAck      = "gateway.readycheck.ack"
	GatewayPresentationPosted = "gateway.presentation.posted"

	// Lifecycle events published by the core
	ScrimCreated   = "events.scrim.created"
	ScrimBooked    = "events.scrim.booked"
	ScrimReverted  = "events.scrim.reverted"
	ScrimCancelled = "events.scrim.cancelled"
	ScrimExpired   = "events.scrim.expired"
	ScrimPlayed    = "events.scrim.played"

	// Outbound requests to the gateway
	NotifyUserDM         = "notify.user.dm"
	NotifyReadyCheck     = "notify.readycheck.prompt"
	PresentationUpdate   = "presentation.update"
	PresentationRemove   = "presentation.remove"

	// Wildcards
	ScrimCommandsWildcard = "commands.scrim.*"
	GatewayEventsWildcard = "gateway.*.*"
	ScrimEventsWildcard   = "events.scrim.*"
	GatewayOutboundNotify = "notify.>"
	GatewayOutboundShow   = "presentation.*"
)

// Command payloads

type CreateScrimCommand struct {
	RequesterID string   `json:"requesterId"`
	GuildID     string   `json:"guildId"`
	ChannelID   string   `json:"channelId"`
	TeamName    string   `json:"teamName"`
	MatchDate   string   `json:"matchDate"`
	Format      string   `json:"format"`
	Maps        []string `json:"maps"`
	Ranks       []string `json:"ranks"`
	Server      string   `json:"server"`
}

type BookScrimCommand struct {
	ScrimID      string `json:"scrimId"`
	ChallengerID string `json:"challengerId"`
}

type CancelScrimCommand struct {
	ScrimID string `json:"scrimId"`
	UserID  string `json:"userId"`
}

type ConfirmScrimCommand struct {
	ScrimID string `json:"scrimId"`
	UserID  string `json:"userId"`
}

// Gateway event payloads

type ReadyCheckAck struct {
	PromptID string `json:"promptId"`
	ScrimID  string `json:"scrimId"`
	UserID   string `json:"userId"`
}

type PresentationPosted struct {
	ScrimID   string `json:"scrimId"`
	ChannelID string `json:"channelId"`
	MessageID string `json:"messageId"`
}

// Lifecycle event payload published on every status change.

type ScrimStatusChanged struct {
	ScrimID       string `json:"scrimId"`
	RequesterID   string `json:"requesterId"`
	CounterpartID string `json:"counterpartId,omitempty"`
	Status        string `json:"status"`
	TimeStamp     int64  `json:"timestamp"`
}

// Outbound gateway request payloads

type UserNotification struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

type ReadyCheckPrompt struct {
	PromptID string `json:"promptId"`
	ScrimID  string `json:"scrimId"`
	UserID   string `json:"userId"`
	Prompt   string `json:"prompt"`
}

type PresentationChange struct {
	ScrimID             string `json:"scrimId"`
	ChannelID           string `json:"channelId,omitempty"`
	MessageID           string `json:"messageId,omitempty"`
	StatusText          string `json:"statusText,omitempty"`
	RemoveInteractivity bool   `json:"removeInteractivity,omitempty"`
}

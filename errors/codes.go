package errors

const (
	// Generic codes
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeConflict             = "CONFLICT"
	CodeInternalServer       = "INTERNAL_SERVER"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
	CodeEventPublishError    = "EVENT_PUBLISH_ERROR"
	CodeEventSubscribeError  = "EVENT_SUBSCRIPTION_ERROR"
	CodeObjectMarshalError   = "OBJECT_MARSHALL_ERROR"
	CodeObjectUnmarshalError = "OBJECT_UNMARSHALL_ERROR"
	CodeDatabaseError        = "DATABASE_ERROR"
	CodeTransactionError     = "TRANSACTION_ERROR"
	CodeRedisOperationError  = "REDIS_ERROR"

	// Scrim lifecycle codes
	CodeSelfBooking      = "SELF_BOOKING"
	CodeNotOwner         = "NOT_OWNER"
	CodeNotParticipant   = "NOT_PARTICIPANT"
	CodeAlreadyActive    = "ALREADY_ACTIVE"
	CodeAlreadyConfirmed = "ALREADY_CONFIRMED"
)

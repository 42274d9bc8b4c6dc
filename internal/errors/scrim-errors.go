package errors

import (
	"fmt"

	apperrors "github.com/ZayanAhmed07/SpikeLeagueScrim/errors"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
)

func ScrimNotFoundError(scrimID string) *apperrors.AppError {
	return apperrors.New(apperrors.CodeNotFound,
		fmt.Sprintf("scrim %s not found", scrimID))
}

func ConflictError(scrimID string, expected models.ScrimStatus) *apperrors.AppError {
	return apperrors.New(apperrors.CodeConflict,
		fmt.Sprintf("scrim %s is no longer %s", scrimID, expected))
}

func SelfBookingError() *apperrors.AppError {
	return apperrors.New(apperrors.CodeSelfBooking,
		"you can't book your own scrim")
}

func NotOwnerError() *apperrors.AppError {
	return apperrors.New(apperrors.CodeNotOwner,
		"only the requester can cancel this scrim")
}

func NotParticipantError() *apperrors.AppError {
	return apperrors.New(apperrors.CodeNotParticipant,
		"only the requester or the booked challenger can confirm completion")
}

func AlreadyActiveError() *apperrors.AppError {
	return apperrors.New(apperrors.CodeAlreadyActive,
		"you already have an active scrim request")
}

func AlreadyConfirmedError() *apperrors.AppError {
	return apperrors.New(apperrors.CodeAlreadyConfirmed,
		"completion already confirmed, waiting on the other party")
}

func IllegalTransitionError(from, to models.ScrimStatus) *apperrors.AppError {
	return apperrors.New(apperrors.CodeConflict,
		fmt.Sprintf("illegal scrim transition %s -> %s", from, to))
}

package room

import "errors"

// Reason is the machine-readable cause attached to every rejected intent.
type Reason string

const (
	ReasonAlreadyExists       Reason = "AlreadyExists"
	ReasonRoomFull            Reason = "RoomFull"
	ReasonInvalidState        Reason = "InvalidState"
	ReasonForbidden           Reason = "Forbidden"
	ReasonInsufficientPlayers Reason = "InsufficientPlayers"
	ReasonNotAllReady         Reason = "NotAllReady"
	ReasonRoomNotFound        Reason = "RoomNotFound"
)

// Error is a rejected intent. Rejections leave room state unchanged and are
// never retried by the coordinator.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	return string(e.Reason) + ": " + e.Message
}

func newError(reason Reason, msg string) *Error {
	return &Error{Reason: reason, Message: msg}
}

// ReasonOf extracts the reason code from err, or "" if err is not a room
// error.
func ReasonOf(err error) Reason {
	var re *Error
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}

// IsReason reports whether err is a room error with the given reason.
func IsReason(err error, reason Reason) bool {
	return ReasonOf(err) == reason
}

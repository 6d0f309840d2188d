package viewer

// AckResult is the outcome of an attempt to mark a submission read.
type AckResult int

const (
	AckSuccess AckResult = iota
	AckAlreadyRead
	AckNotFound
	AckSaveError
	AckNoSelection
	AckUnreadRejected
)

func (r AckResult) String() string {
	switch r {
	case AckSuccess:
		return "success"
	case AckAlreadyRead:
		return "already_read"
	case AckNotFound:
		return "not_found"
	case AckSaveError:
		return "save_error"
	case AckNoSelection:
		return "no_selection"
	case AckUnreadRejected:
		return "unread_rejected"
	default:
		return "unknown"
	}
}

// Message is the operator-facing feedback for r.
func (r AckResult) Message() string {
	switch r {
	case AckSuccess:
		return "Submission marked as read."
	case AckAlreadyRead:
		return "This submission is already marked as read."
	case AckNotFound:
		return "The submission could not be found. It may have been deleted."
	case AckSaveError:
		return "Could not save the change. Please try again."
	case AckNoSelection:
		return "Select a submission first."
	case AckUnreadRejected:
		return "Submissions cannot be marked unread."
	default:
		return ""
	}
}

// Wrote reports whether r changed the store.
func (r AckResult) Wrote() bool {
	return r == AckSuccess
}

package booking

// Status represents the current state of a booking in its lifecycle
type Status string

const (
	StatusPending         Status = "Pending"
	StatusAccepted        Status = "Accepted"
	StatusRejected        Status = "Rejected"
	StatusInProgress      Status = "In-Progress"
	StatusCompletedUnpaid Status = "Completed-Unpaid"
	StatusCompletedPaid   Status = "Completed-Paid"
	StatusCancelled       Status = "cancelled"
	StatusExpired         Status = "expired"
)

// validTransitions is the booking state machine.
// Rejected keeps the captured fee until the owner cancels.
var validTransitions = map[Status][]Status{
	StatusPending:         {StatusAccepted, StatusRejected, StatusCancelled, StatusExpired},
	StatusAccepted:        {StatusInProgress, StatusCancelled},
	StatusRejected:        {StatusCancelled},
	StatusInProgress:      {StatusCompletedUnpaid, StatusCancelled},
	StatusCompletedUnpaid: {StatusCompletedPaid, StatusCancelled},
	StatusCompletedPaid:   {},
	StatusCancelled:       {},
	StatusExpired:         {},
}

// IsValid returns true if the status is a recognized booking status
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// IsActive reports whether the booking still holds the handyman's slot
func (s Status) IsActive() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusInProgress:
		return true
	}
	return false
}

// ActiveStatuses lists the statuses that hold a slot
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusAccepted, StatusInProgress}
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// ExpiryReason records which sweep rule expired a booking
type ExpiryReason string

const (
	ExpiryNoResponse  ExpiryReason = "no_response"
	ExpiryMissedStart ExpiryReason = "missed_start"
)

// IsValid reports whether the reason is known
func (r ExpiryReason) IsValid() bool {
	return r == ExpiryNoResponse || r == ExpiryMissedStart
}

// Describe returns the human-readable reason stored on the booking
func (r ExpiryReason) Describe() string {
	switch r {
	case ExpiryNoResponse:
		return "Handyman did not respond in time"
	case ExpiryMissedStart:
		return "Scheduled start time passed without a response"
	}
	return ""
}

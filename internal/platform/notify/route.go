package notify

import "github.com/kislikjeka/handygo/internal/booking"

var handymanStatuses = map[booking.Status]bool{
	booking.StatusPending:       true,
	booking.StatusCompletedPaid: true,
}

var userStatuses = map[booking.Status]bool{
	booking.StatusAccepted:        true,
	booking.StatusRejected:        true,
	booking.StatusInProgress:      true,
	booking.StatusCompletedUnpaid: true,
	booking.StatusExpired:         true,
}

// Route returns the deliveries a booking event triggers. Most events have at most one.
func Route(e booking.Event) []Delivery {
	switch e.Kind {
	case booking.EventArrived:
		return []Delivery{{Audience: AudienceUser, AccountID: e.UserID, Event: "arrived"}}
	case booking.EventStatusChanged:
	default:
		return nil
	}

	switch {
	case handymanStatuses[e.Status]:
		return []Delivery{{Audience: AudienceHandyman, AccountID: e.HandymanID, Event: string(e.Status)}}
	case e.Status == booking.StatusExpired:
		reason := e.ExpiryReason
		if !reason.IsValid() {
			reason = booking.ExpiryNoResponse
		}
		return []Delivery{{Audience: AudienceUser, AccountID: e.UserID, Event: "expired." + string(reason)}}
	case userStatuses[e.Status]:
		return []Delivery{{Audience: AudienceUser, AccountID: e.UserID, Event: string(e.Status)}}
	}
	return nil
}

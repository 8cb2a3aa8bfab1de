package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Audience is the party a notification is addressed to
type Audience string

const (
	AudienceUser     Audience = "user"
	AudienceHandyman Audience = "handyman"
)

// Message is the rendered push payload
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Marker identifies one sent notification
type Marker struct {
	BookingID uuid.UUID
	Status    string
	Audience  Audience
	SentAt    time.Time
}

func (m Marker) key() string {
	return fmt.Sprintf("%s/%s/%s", m.BookingID, m.Status, m.Audience)
}

// Delivery is one audience a booking event must reach
type Delivery struct {
	Audience  Audience
	AccountID uuid.UUID
	// Event is the catalogue event name, e.g. "Accepted" or "expired.no_response"
	Event string
}

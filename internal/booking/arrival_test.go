package booking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/pkg/geo"
	"github.com/kislikjeka/handygo/pkg/logger"
)

func TestArrivalDetector_ReportLocation(t *testing.T) {
	handymanID := uuid.New()
	site := geo.Point{Latitude: 3.1579, Longitude: 101.7123}
	// ~50 m north of the site
	near := geo.Point{Latitude: 3.15835, Longitude: 101.7123}
	// ~1.1 km north of the site
	far := geo.Point{Latitude: 3.1679, Longitude: 101.7123}

	nearBooking := &booking.Booking{ID: uuid.New(), UserID: uuid.New(), HandymanID: handymanID, Status: booking.StatusInProgress, Location: &site}

	tests := []struct {
		name        string
		position    geo.Point
		setupMock   func(*MockRepository, *MockThrottle)
		wantChecked bool
		wantArrived int
		wantEvents  int
	}{
		{
			name:     "within radius notifies once",
			position: near,
			setupMock: func(repo *MockRepository, throttle *MockThrottle) {
				throttle.On("Allow", mock.Anything, "arrival:"+handymanID.String()).Return(true, nil)
				repo.On("ListArrivalCandidates", mock.Anything, handymanID).Return([]*booking.Booking{nearBooking}, nil)
				repo.On("MarkArrived", mock.Anything, nearBooking.ID).Return(true, nil)
			},
			wantChecked: true,
			wantArrived: 1,
			wantEvents:  1,
		},
		{
			name:     "outside radius",
			position: far,
			setupMock: func(repo *MockRepository, throttle *MockThrottle) {
				throttle.On("Allow", mock.Anything, mock.Anything).Return(true, nil)
				repo.On("ListArrivalCandidates", mock.Anything, handymanID).Return([]*booking.Booking{nearBooking}, nil)
			},
			wantChecked: true,
		},
		{
			name:     "already marked by a concurrent check",
			position: near,
			setupMock: func(repo *MockRepository, throttle *MockThrottle) {
				throttle.On("Allow", mock.Anything, mock.Anything).Return(true, nil)
				repo.On("ListArrivalCandidates", mock.Anything, handymanID).Return([]*booking.Booking{nearBooking}, nil)
				repo.On("MarkArrived", mock.Anything, nearBooking.ID).Return(false, nil)
			},
			wantChecked: true,
		},
		{
			name:     "throttled",
			position: near,
			setupMock: func(repo *MockRepository, throttle *MockThrottle) {
				throttle.On("Allow", mock.Anything, mock.Anything).Return(false, nil)
			},
		},
		{
			name:     "throttle failure still checks",
			position: near,
			setupMock: func(repo *MockRepository, throttle *MockThrottle) {
				throttle.On("Allow", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
				repo.On("ListArrivalCandidates", mock.Anything, handymanID).Return([]*booking.Booking{nearBooking}, nil)
				repo.On("MarkArrived", mock.Anything, nearBooking.ID).Return(true, nil)
			},
			wantChecked: true,
			wantArrived: 1,
			wantEvents:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, throttle, locations, pub := new(MockRepository), new(MockThrottle), new(MockLocationStore), &recordingPublisher{}
			locations.On("UpdateLocation", mock.Anything, handymanID, tt.position).Return(nil)
			tt.setupMock(repo, throttle)
			d := booking.NewArrivalDetector(repo, locations, throttle, pub, 0.1, logger.Discard())

			report, err := d.ReportLocation(context.Background(), handymanID, tt.position)

			require.NoError(t, err)
			assert.Equal(t, tt.wantChecked, report.Checked)
			assert.Len(t, report.Arrived, tt.wantArrived)
			events := pub.published()
			require.Len(t, events, tt.wantEvents)
			for _, e := range events {
				assert.Equal(t, booking.EventArrived, e.Kind)
				assert.Equal(t, nearBooking.UserID, e.UserID)
			}
			locations.AssertExpectations(t)
			repo.AssertExpectations(t)
		})
	}
}

func TestArrivalDetector_InvalidCoordinates(t *testing.T) {
	d := booking.NewArrivalDetector(new(MockRepository), new(MockLocationStore), new(MockThrottle), nil, 0.1, logger.Discard())

	_, err := d.ReportLocation(context.Background(), uuid.New(), geo.Point{Latitude: 91, Longitude: 0})

	assert.ErrorIs(t, err, booking.ErrInvalidCoordinate)
}

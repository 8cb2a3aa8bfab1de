package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/pkg/config"
	"github.com/kislikjeka/handygo/pkg/logger"
)

// DefaultCacheTTL is how long a sent marker is remembered in memory
const DefaultCacheTTL = time.Hour

// Config holds dispatcher settings
type Config struct {
	CacheTTL time.Duration
	// ExpiryHours is rendered into the no-response copy
	ExpiryHours int
}

// Dispatcher turns booking events into push notifications, at most once per
// booking, event and audience
type Dispatcher struct {
	templates map[string]*compiled
	tokens    TokenSource
	markers   MarkerStore
	sender    Sender
	config    Config
	cache     *sentCache
	logger    *logger.Logger
	now       func() time.Time
}

type compiled struct {
	title *template.Template
	body  *template.Template
}

// templateData is what catalogue templates can reference
type templateData struct {
	BookingID   string
	Category    string
	Slot        string
	ServiceDate string
	Amount      string
	Reason      string
	ExpiryHours int
}

// NewDispatcher compiles the catalogue and creates a dispatcher
func NewDispatcher(
	catalogue *config.NotificationTemplates,
	tokens TokenSource,
	markers MarkerStore,
	sender Sender,
	cfg Config,
	log *logger.Logger,
) (*Dispatcher, error) {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	templates := make(map[string]*compiled, len(catalogue.Templates))
	for _, tpl := range catalogue.Templates {
		key := tpl.Audience + "/" + tpl.Event
		title, err := template.New(key + "/title").Parse(tpl.Title)
		if err != nil {
			return nil, fmt.Errorf("failed to parse title template %s: %w", key, err)
		}
		body, err := template.New(key + "/body").Parse(tpl.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse body template %s: %w", key, err)
		}
		templates[key] = &compiled{title: title, body: body}
	}

	d := &Dispatcher{
		templates: templates,
		tokens:    tokens,
		markers:   markers,
		sender:    sender,
		config:    cfg,
		logger:    log.WithField("service", "notify"),
		now:       time.Now,
	}
	d.cache = newSentCache(cfg.CacheTTL, func() time.Time { return d.now() })
	return d, nil
}

// SetClock overrides the time source
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.now = now
}

// Handle sends every notification an event triggers.
// Only a failed token lookup is returned so a bus can redeliver; send failures are logged.
func (d *Dispatcher) Handle(ctx context.Context, e booking.Event) error {
	for _, delivery := range Route(e) {
		if err := d.deliver(ctx, e, delivery); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, e booking.Event, delivery Delivery) error {
	log := d.logger.With(
		"booking_id", e.BookingID,
		"audience", delivery.Audience,
		"event", delivery.Event)

	marker := Marker{
		BookingID: e.BookingID,
		Status:    delivery.Event,
		Audience:  delivery.Audience,
		SentAt:    d.now().UTC(),
	}
	key := marker.key()

	if d.cache.seen(key) {
		log.Debug("notification already sent (cache)")
		return nil
	}

	tpl, ok := d.templates[string(delivery.Audience)+"/"+delivery.Event]
	if !ok {
		log.Debug("no template for event")
		return nil
	}

	token, err := d.tokens.PushToken(ctx, delivery.AccountID)
	if err != nil {
		return fmt.Errorf("failed to get push token: %w", err)
	}
	if token == "" {
		log.Debug("no push token registered", "account_id", delivery.AccountID)
		return nil
	}

	claimed, err := d.markers.Claim(ctx, marker)
	if err != nil {
		log.Warn("notification marker unavailable, using in-memory dedup", "error", err)
		claimed = true
	}
	if !d.cache.add(key) || !claimed {
		log.Debug("notification already sent")
		return nil
	}

	msg, err := d.render(tpl, e)
	if err != nil {
		log.Error("failed to render notification", "error", err)
		return nil
	}
	msg.Data = map[string]string{
		"bookingId": e.BookingID.String(),
		"status":    string(e.Status),
		"type":      delivery.Event,
	}

	if err := d.sender.Send(ctx, token, msg); err != nil {
		log.Warn("failed to send notification", "error", err)
		return nil
	}

	log.Info("notification sent", "account_id", delivery.AccountID)
	return nil
}

func (d *Dispatcher) render(tpl *compiled, e booking.Event) (Message, error) {
	data := templateData{
		BookingID:   e.BookingID.String(),
		Category:    e.Category,
		Slot:        e.Slot.String(),
		ServiceDate: e.ServiceDate,
		Amount:      e.Amount.String(),
		Reason:      e.Reason,
		ExpiryHours: d.config.ExpiryHours,
	}

	var title, body bytes.Buffer
	if err := tpl.title.Execute(&title, data); err != nil {
		return Message{}, fmt.Errorf("failed to render title: %w", err)
	}
	if err := tpl.body.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("failed to render body: %w", err)
	}
	return Message{Title: title.String(), Body: body.String()}, nil
}

package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed notifications.yaml
var defaultNotificationTemplates []byte

// NotificationTemplate is the push copy for one audience/event pair
type NotificationTemplate struct {
	Audience string `yaml:"audience"`
	Event    string `yaml:"event"`
	Title    string `yaml:"title"`
	Body     string `yaml:"body"`
}

// NotificationTemplates holds the notification catalogue
type NotificationTemplates struct {
	Templates []NotificationTemplate `yaml:"templates"`

	// Lookup map keyed by audience + "/" + event
	byKey map[string]*NotificationTemplate
}

// LoadNotificationTemplates loads the catalogue from a YAML file.
// An empty path returns the embedded default catalogue.
func LoadNotificationTemplates(path string) (*NotificationTemplates, error) {
	data := defaultNotificationTemplates
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read notification templates file: %w", err)
		}
	}
	return ParseNotificationTemplates(data)
}

// ParseNotificationTemplates decodes and validates a YAML catalogue
func ParseNotificationTemplates(data []byte) (*NotificationTemplates, error) {
	var catalogue NotificationTemplates
	if err := yaml.Unmarshal(data, &catalogue); err != nil {
		return nil, fmt.Errorf("failed to parse notification templates: %w", err)
	}

	if err := catalogue.Validate(); err != nil {
		return nil, err
	}

	// Build lookup map
	catalogue.byKey = make(map[string]*NotificationTemplate, len(catalogue.Templates))
	for i := range catalogue.Templates {
		tpl := &catalogue.Templates[i]
		catalogue.byKey[templateKey(tpl.Audience, tpl.Event)] = tpl
	}

	return &catalogue, nil
}

// Validate validates the catalogue
func (c *NotificationTemplates) Validate() error {
	if len(c.Templates) == 0 {
		return fmt.Errorf("at least one notification template must be configured")
	}

	seen := make(map[string]bool)
	for _, tpl := range c.Templates {
		if tpl.Audience != "user" && tpl.Audience != "handyman" {
			return fmt.Errorf("invalid audience %q for event %s", tpl.Audience, tpl.Event)
		}
		if tpl.Event == "" {
			return fmt.Errorf("event is required for %s template", tpl.Audience)
		}
		if tpl.Title == "" {
			return fmt.Errorf("title is required for %s/%s", tpl.Audience, tpl.Event)
		}
		key := templateKey(tpl.Audience, tpl.Event)
		if seen[key] {
			return fmt.Errorf("duplicate template %s", key)
		}
		seen[key] = true
	}

	return nil
}

// Lookup returns the template for an audience and event
func (c *NotificationTemplates) Lookup(audience, event string) (*NotificationTemplate, bool) {
	tpl, ok := c.byKey[templateKey(audience, event)]
	return tpl, ok
}

func templateKey(audience, event string) string {
	return audience + "/" + event
}

// Package analytics fans landing-page interaction events out to every
// configured sink. Tracking is best effort: a failing sink never reaches the
// caller.
package analytics

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

type Category string

const (
	CategoryPricing    Category = "pricing"
	CategoryCTA        Category = "cta"
	CategoryForm       Category = "form"
	CategoryNavigation Category = "navigation"
	CategoryComparison Category = "comparison"
)

var categories = map[Category]struct{}{
	CategoryPricing:    {},
	CategoryCTA:        {},
	CategoryForm:       {},
	CategoryNavigation: {},
	CategoryComparison: {},
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

var (
	ErrUnknownCategory = errors.New("analytics: unknown category")
	ErrInvalidAction   = errors.New("analytics: invalid action")
	ErrInvalidPayload  = errors.New("analytics: invalid payload")
)

const (
	maxActionLength   = 64
	maxLabelLength    = 256
	maxProperties     = 24
	emailHashLength   = 10
	defaultLeadSource = "lead_capture_section"
)

// Event is a single tracked interaction.
type Event struct {
	Category   Category
	Action     string
	Label      string
	Value      *float64
	Properties map[string]any
	Timestamp  time.Time
	URL        string
	UserAgent  string
}

// Validate checks the category and action.
func (e Event) Validate() error {
	if !e.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, e.Category)
	}
	if e.Action == "" || len(e.Action) > maxActionLength {
		return ErrInvalidAction
	}
	for _, r := range e.Action {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return fmt.Errorf("%w: %q", ErrInvalidAction, e.Action)
		}
	}
	if len(e.Label) > maxLabelLength {
		return fmt.Errorf("%w: label too long", ErrInvalidPayload)
	}
	if len(e.Properties) > maxProperties {
		return fmt.Errorf("%w: too many properties", ErrInvalidPayload)
	}
	return nil
}

// Flatten returns the wire form: custom properties merged at the top level with
// the reserved keys taking precedence.
func (e Event) Flatten() map[string]any {
	out := make(map[string]any, len(e.Properties)+7)
	for k, v := range e.Properties {
		out[k] = v
	}
	out["category"] = string(e.Category)
	out["action"] = e.Action
	if e.Label != "" {
		out["label"] = e.Label
	}
	if e.Value != nil {
		out["value"] = *e.Value
	}
	if !e.Timestamp.IsZero() {
		out["timestamp"] = e.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	if e.URL != "" {
		out["url"] = e.URL
	}
	if e.UserAgent != "" {
		out["userAgent"] = e.UserAgent
	}
	return out
}

// MarshalJSON encodes the flattened form.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Flatten())
}

var reservedKeys = []string{"category", "action", "label", "value", "timestamp", "url", "userAgent", "properties"}

// ParseEvent decodes a browser-submitted event. Unknown top-level keys become
// properties; a nested "properties" object is merged as well.
func ParseEvent(r io.Reader) (Event, error) {
	var raw map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	ev := Event{
		Category:  Category(stringField(raw, "category")),
		Action:    stringField(raw, "action"),
		Label:     stringField(raw, "label"),
		URL:       stringField(raw, "url"),
		UserAgent: stringField(raw, "userAgent"),
	}
	if v, ok := raw["value"]; ok && v != nil {
		f, ok := v.(float64)
		if !ok {
			return Event{}, fmt.Errorf("%w: value must be a number", ErrInvalidPayload)
		}
		ev.Value = &f
	}
	if ts := stringField(raw, "timestamp"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			ev.Timestamp = parsed.UTC()
		}
	}

	props := map[string]any{}
	if nested, ok := raw["properties"].(map[string]any); ok {
		for k, v := range nested {
			props[k] = v
		}
	}
	for _, k := range reservedKeys {
		delete(raw, k)
	}
	for k, v := range raw {
		props[k] = v
	}
	if len(props) > 0 {
		ev.Properties = props
	}
	return ev, ev.Validate()
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// EmailHash tags an address without recording it: the first ten characters of
// its base64 encoding. Empty input yields "".
func EmailHash(email string) string {
	if email == "" {
		return ""
	}
	enc := base64.StdEncoding.EncodeToString([]byte(email))
	if len(enc) > emailHashLength {
		enc = enc[:emailHashLength]
	}
	return enc
}

func floatPtr(v float64) *float64 { return &v }

// PricingClick records a plan card CTA click.
func PricingClick(key, name string, price float64, currency string) Event {
	return Event{
		Category: CategoryPricing,
		Action:   "pricing_plan_clicked",
		Label:    fmt.Sprintf("%s (%s)", key, name),
		Value:    floatPtr(price),
		Properties: map[string]any{
			"planName": key,
			"planCn":   name,
			"price":    price,
			"currency": currency,
		},
	}
}

// PricingFormSubmit records an email left in the pricing modal.
func PricingFormSubmit(plan, email string) Event {
	props := map[string]any{"planName": plan}
	if h := EmailHash(email); h != "" {
		props["emailHash"] = h
	}
	return Event{Category: CategoryForm, Action: "pricing_form_submitted", Label: plan, Properties: props}
}

// CTAClick records a call-to-action button click.
func CTAClick(name, location string) Event {
	return Event{
		Category:   CategoryCTA,
		Action:     "cta_clicked",
		Label:      name,
		Properties: map[string]any{"location": location},
	}
}

// ComparisonInteraction records slider or code-view interactions.
func ComparisonInteraction(action string) Event {
	return Event{Category: CategoryComparison, Action: action}
}

// LeadCaptureSubmit records a lead form submission. An empty location means
// the lead-capture section.
func LeadCaptureSubmit(email, location string) Event {
	if location == "" {
		location = defaultLeadSource
	}
	ev := Event{Category: CategoryForm, Action: "lead_capture_submitted", Label: location}
	if h := EmailHash(email); h != "" {
		ev.Properties = map[string]any{"emailHash": h}
	}
	return ev
}

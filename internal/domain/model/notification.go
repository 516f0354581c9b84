package model

// Severity is the urgency tier attached to a classified notification.
type Severity string

const (
	SeverityGreen  Severity = "green"
	SeverityYellow Severity = "yellow"
	SeverityRed    Severity = "red"
)

// NotificationData is the display-ready result of classifying a single check-in event.
// It is immutable once built and travels by value to the presenters.
type NotificationData struct {
	Title               string   `json:"title"`
	Message             string   `json:"message"`
	Type                Severity `json:"type"`
	RequiresInteraction bool     `json:"requiresInteraction"`
	Image               *string  `json:"image"`
}

// HasImage reports whether the event carried an image reference.
func (n NotificationData) HasImage() bool {
	return n.Image != nil
}

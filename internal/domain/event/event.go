package event

// Kind identifies which presenter operation a bus message carries.
type Kind int16

const (
	NotificationData Kind = iota + 1 // [DISPLAY]
	CheckinData                      // [FORWARD_RAW]
)

const (
	// TopicNotificationData carries classified notifications to the display side.
	TopicNotificationData = "notification-data"
	// TopicCheckinData carries the untouched business document to the primary surface.
	TopicCheckinData = "checkin-data"
)

const (
	// NotificationSurface is created on demand for every display.
	NotificationSurface = "notifications"
	// PrimarySurface only receives forwarded events while it is open.
	PrimarySurface = "primary"
)

// Topic returns the bus topic (and surface event name) for the kind.
func (k Kind) Topic() string {
	switch k {
	case NotificationData:
		return TopicNotificationData
	case CheckinData:
		return TopicCheckinData
	default:
		return ""
	}
}

func (k Kind) String() string {
	switch k {
	case NotificationData:
		return "NotificationData"
	case CheckinData:
		return "CheckinData"
	default:
		return "Kind(unknown)"
	}
}

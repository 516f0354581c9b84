package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/webitel/checkin-notifier/internal/domain/model"
)

// Membership status codes carried in the "status" field.
const (
	StatusNoMembership int64 = 0
	StatusValid        int64 = 1
	StatusExpired      int64 = 2
	StatusMessage      int64 = 3
)

const (
	// defaultStatus applies when "status" is absent or not an integer.
	defaultStatus = StatusValid
	// balanceThreshold splits an outstanding balance between yellow and red.
	balanceThreshold = 25.0

	defaultTitle = "Unknown"
	lineBreak    = "<br />"

	membershipSpan = `<span class="membership">%s</span>`
	alertPrefix    = `<span style="color: red; font-weight: bold;">ALERT: </span>`
	warningPrefix  = `<span style="color: #bf9500; font-weight: bold;">WARNING: </span>`
)

// Event field names.
const (
	fieldMember      = "member"
	fieldStatus      = "status"
	fieldMessage     = "message"
	fieldMembership  = "membership"
	fieldBalanceDue  = "balanceDue"
	fieldBalance     = "balance"
	fieldRedAlert    = "redAlert"
	fieldYellowAlert = "yellowAlert"
	fieldImage       = "image"
)

// checkin is the defaulted view of a RawEvent the rules read from.
type checkin struct {
	member      string
	status      int64
	message     string
	membership  string
	balanceDue  bool
	balance     float64
	redAlert    string
	yellowAlert string
	image       *string
}

func readCheckin(ev model.RawEvent) checkin {
	c := checkin{
		member:      ev.String(fieldMember),
		status:      ev.Int(fieldStatus, defaultStatus),
		message:     ev.String(fieldMessage),
		membership:  ev.String(fieldMembership),
		balanceDue:  ev.Bool(fieldBalanceDue, false),
		balance:     ev.Float(fieldBalance, 0),
		redAlert:    ev.String(fieldRedAlert),
		yellowAlert: ev.String(fieldYellowAlert),
		image:       ev.OptionalString(fieldImage),
	}
	if _, ok := ev[fieldMember].(string); !ok {
		c.member = defaultTitle
	}
	return c
}

// Classify maps a check-in event to a display-ready notification.
// It is pure: the same event always yields an identical NotificationData.
func Classify(ev model.RawEvent) model.NotificationData {
	c := readCheckin(ev)

	return model.NotificationData{
		Title:               c.member,
		Message:             c.assembleMessage(),
		Type:                c.severity(),
		RequiresInteraction: c.requiresInteraction(),
		Image:               c.image,
	}
}

func (c checkin) statusMessage() string {
	switch c.status {
	case StatusNoMembership:
		return "NO MEMBERSHIP"
	case StatusExpired:
		return "EXPIRED"
	case StatusMessage:
		return c.message
	case StatusValid:
		return fmt.Sprintf(membershipSpan, c.membership)
	default:
		return c.membership
	}
}

// assembleMessage joins the non-empty parts in fixed order:
// status, balance due, red alert, yellow alert.
func (c checkin) assembleMessage() string {
	parts := make([]string, 0, 4)

	if s := c.statusMessage(); s != "" {
		parts = append(parts, s)
	}
	if c.balanceDue {
		parts = append(parts, "BALANCE DUE: $"+formatBalance(c.balance))
	}
	if c.redAlert != "" {
		parts = append(parts, alertPrefix+c.redAlert)
	}
	if c.yellowAlert != "" {
		parts = append(parts, warningPrefix+c.yellowAlert)
	}

	return strings.Join(parts, lineBreak)
}

func (c checkin) blockingStatus() bool {
	return c.status == StatusNoMembership || c.status == StatusExpired || c.status == StatusMessage
}

func (c checkin) overdue() bool {
	return c.balanceDue && c.balance > balanceThreshold
}

// severity evaluates red, then yellow, then falls back to green.
func (c checkin) severity() model.Severity {
	if c.redAlert != "" || c.blockingStatus() || c.overdue() {
		return model.SeverityRed
	}
	if c.status == StatusValid && (c.yellowAlert != "" || (c.balanceDue && c.balance <= balanceThreshold)) {
		return model.SeverityYellow
	}
	return model.SeverityGreen
}

// requiresInteraction is its own rule set and is not derived from severity:
// a yellow alert demands interaction even though it only rates yellow.
func (c checkin) requiresInteraction() bool {
	return c.redAlert != "" ||
		c.yellowAlert != "" ||
		c.blockingStatus() ||
		c.overdue()
}

// formatBalance renders the shortest decimal form without an exponent (10 -> "10", 12.5 -> "12.5").
func formatBalance(b float64) string {
	return strconv.FormatFloat(b, 'f', -1, 64)
}

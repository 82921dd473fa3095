package billing

import (
	"time"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
)

// DefaultSessionWindow is how long a draft invoice stays editable after the
// billing session starts.
const DefaultSessionWindow = 20 * time.Minute

// SessionClock owns the session-validity rules. Expiry is lazy: nothing here
// mutates state, callers persist the sticky flag when a check fails. The role
// policy is consulted only in this one place.
type SessionClock struct {
	window time.Duration
	now    func() time.Time
}

// NewSessionClock builds a clock with the given window; a non-positive window
// falls back to the default 20 minutes.
func NewSessionClock(window time.Duration) *SessionClock {
	if window <= 0 {
		window = DefaultSessionWindow
	}
	return &SessionClock{window: window, now: time.Now}
}

// Window returns the configured session duration.
func (c *SessionClock) Window() time.Duration { return c.window }

// EndOf computes the fixed session end for a session started at start.
func (c *SessionClock) EndOf(start time.Time) time.Time {
	return start.Add(c.window)
}

// IsActive reports whether the invoice's session still permits edits.
// Admin-role actors are not bound to session windows at all.
func (c *SessionClock) IsActive(inv *models.Invoice, role models.Role) bool {
	if role == models.RoleAdmin {
		return true
	}
	if inv.IsSessionExpired {
		return false
	}
	return c.now().Before(inv.SessionEndTime)
}

// Remaining returns how much of the session window is left, clamped at zero.
func (c *SessionClock) Remaining(inv *models.Invoice) time.Duration {
	if inv.IsSessionExpired {
		return 0
	}
	d := inv.SessionEndTime.Sub(c.now())
	if d < 0 {
		return 0
	}
	return d
}

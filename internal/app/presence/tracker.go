package presence

// Tracker records, per user, whether a conversation is currently open in the foreground.
// The flag is per user, not per peer: opening any chat sets it.
type Tracker struct {
	active map[UserID]bool
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{active: make(map[UserID]bool)}
}

// SetActive sets the active-chat flag for user.
func (t *Tracker) SetActive(user UserID, active bool) {
	t.active[user] = active
}

// IsActive reports the flag for user. Unknown users are inactive.
func (t *Tracker) IsActive(user UserID) bool {
	return t.active[user]
}

// Clear forgets user entirely.
func (t *Tracker) Clear(user UserID) {
	delete(t.active, user)
}

package presence

import (
	"sort"

	"github.com/samber/lo"
)

// Registry maps a user to the connection it most recently joined from.
// It is the single source of truth for whether a user is online.
// Registry is not safe for concurrent use; the Engine serializes access.
type Registry struct {
	conns map[UserID]ConnID
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[UserID]ConnID)}
}

// SetOnline binds user to conn, replacing any previous binding.
func (r *Registry) SetOnline(user UserID, conn ConnID) {
	r.conns[user] = conn
}

// Get returns the connection bound to user.
func (r *Registry) Get(user UserID) (ConnID, bool) {
	conn, ok := r.conns[user]
	return conn, ok
}

// Remove drops the binding for user. Removing an unknown user is a no-op.
func (r *Registry) Remove(user UserID) {
	delete(r.conns, user)
}

// Len reports the number of online users.
func (r *Registry) Len() int {
	return len(r.conns)
}

// Users returns the online users in ascending order.
func (r *Registry) Users() []UserID {
	users := lo.Keys(r.conns)
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

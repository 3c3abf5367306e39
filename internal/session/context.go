package session

import "context"

type ctxKey string

const userKey ctxKey = "clinic.session_user"

// WithUser stores the session user in context.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// FromContext extracts the session user if present.
func FromContext(ctx context.Context) (User, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return User{}, false
	}
	user, ok := val.(User)
	return user, ok && user.ID != ""
}

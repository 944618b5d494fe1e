package request

import (
	"net/http"

	"github.com/mangashelf/mangashelf/model"
)

type ContextKey int

const (
	ClientIPContextKey ContextKey = iota
	UserContextKey
)

func getContextStringValue(r *http.Request, key ContextKey) string {
	if v := r.Context().Value(key); v != nil {
		if value, valid := v.(string); valid {
			return value
		}
	}
	return ""
}

// ClientIP returns the client IP address stored in the context.
func ClientIP(r *http.Request) string {
	return getContextStringValue(r, ClientIPContextKey)
}

// GetUser returns the authenticated identity stored in the context by the
// authentication interceptor, or nil.
func GetUser(r *http.Request) *model.User {
	if v := r.Context().Value(UserContextKey); v != nil {
		if user, valid := v.(*model.User); valid {
			return user
		}
	}
	return nil
}

// GetUserRole returns the role of the authenticated identity, or "".
func GetUserRole(r *http.Request) model.Role {
	if user := GetUser(r); user != nil {
		return user.Role
	}
	return ""
}

// Package goal holds the goal lifecycle model and the repository contract the
// coaching agents write through.
package goal

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a goal id does not exist.
	ErrNotFound = errors.New("goal not found")
	// ErrDuplicateID is returned by Create when the id is already taken.
	ErrDuplicateID = errors.New("duplicate goal id")
)

// Repository persists goal records. Every mutation checks that the goal exists
// and moves the latest pointer of the session carried in ctx.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	AttachPlan(ctx context.Context, id string, p Plan) error
	PrependCheckIn(ctx context.Context, id string, c CheckIn) error
	PrependReflection(ctx context.Context, id string, r Reflection) error
	UpdateDetails(ctx context.Context, id string, d Details) error
	Get(ctx context.Context, id string) (Record, error)
	Latest(ctx context.Context) (Record, error)
}

type sessionKey struct{}

// DefaultSession is used when a context carries no session.
const DefaultSession = "default"

// WithSession returns a context whose latest-goal lookups and mutations are
// scoped to session.
func WithSession(ctx context.Context, session string) context.Context {
	if session == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFrom returns the session carried in ctx, or DefaultSession.
func SessionFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sessionKey{}).(string); ok && s != "" {
		return s
	}
	return DefaultSession
}

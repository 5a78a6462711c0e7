// Package sessions stores voice call sessions between turns.
package sessions

import (
	"context"

	"github.com/google/uuid"

	"github.com/DrVanHelsing/CallTech/internal/agent"
)

// Store is an agent.SessionStore that can also create and drop sessions.
// Create with an empty id picks a new one; an existing id is left as is.
type Store interface {
	agent.SessionStore
	Create(ctx context.Context, id string) (*agent.Session, error)
	Delete(ctx context.Context, id string) error
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

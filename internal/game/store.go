package game

import (
	"context"
	"fmt"
)

var ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)

// Store persists one Document per username. Each call is atomic for a single
// document; there are no multi-document transactions.
type Store interface {
	// Create fails with ErrAccountExists when the username is taken.
	Create(ctx context.Context, doc Document) error
	// FindByUsername fails with ErrAccountNotFound.
	FindByUsername(ctx context.Context, username string) (Document, error)
	SetFields(ctx context.Context, username string, update Update) error
	// Push appends value to the array at field.
	Push(ctx context.Context, username, field string, value any, set Update) error
	// Pull removes elements with the given id from the array at field and
	// reports whether one was removed. set is written only when one was.
	Pull(ctx context.Context, username, field, id string, set Update) (bool, error)
	Replace(ctx context.Context, doc Document) error
	Usernames(ctx context.Context) ([]string, error)
}

// Package errs defines the rejection taxonomy shared by every engine
// component. A rejected operation leaves state untouched.
package errs

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is matching.
var (
	ErrBlocked  = errors.New("blocked")
	ErrNotFound = errors.New("not found")
	// ErrRestoreCollision reports that an undo target already exists again.
	ErrRestoreCollision = errors.New("restore collision")
)

// Preconditions reported by BlockedError.
const (
	Lockdown       = "lockdown"
	ChainOrder     = "chain_order"
	ResearchRatio  = "research_ratio"
	WordCount      = "word_count"
	Deletion       = "deletion"
	Cooldown       = "cooldown"
	Funds          = "funds"
	AlreadyDone    = "already_done"
	InvalidInput   = "invalid_input"
	NotLocked      = "not_locked"
	BossLocked     = "boss_locked"
	UndoExpired    = "undo_expired"
	DuplicateEntry = "duplicate"
)

// BlockedError indicates a precondition was not met.
type BlockedError struct {
	Precondition string
	Reason       string
}

func (e BlockedError) Error() string {
	return fmt.Sprintf("blocked (%s): %s", e.Precondition, e.Reason)
}

// Is matches ErrBlocked.
func (e BlockedError) Is(target error) bool {
	return target == ErrBlocked
}

// NotFoundError indicates an unknown skill, quest, chain, mission or id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Is matches ErrNotFound.
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Blocked builds a BlockedError.
func Blocked(precondition, format string, args ...any) error {
	return BlockedError{Precondition: precondition, Reason: fmt.Sprintf(format, args...)}
}

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return NotFoundError{Kind: kind, ID: id}
}

// PreconditionOf returns the failed precondition of a blocked error, or "".
func PreconditionOf(err error) string {
	var be BlockedError
	if errors.As(err, &be) {
		return be.Precondition
	}
	return ""
}

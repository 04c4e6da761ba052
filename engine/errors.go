package engine

import "github.com/nathoo/questrun/engine/errs"

// Rejection taxonomy, re-exported from the leaf package shared with the
// component packages.
var (
	ErrBlocked          = errs.ErrBlocked
	ErrNotFound         = errs.ErrNotFound
	ErrRestoreCollision = errs.ErrRestoreCollision
)

type (
	BlockedError  = errs.BlockedError
	NotFoundError = errs.NotFoundError
)

// PreconditionOf returns the failed precondition of a blocked error, or "".
func PreconditionOf(err error) string {
	return errs.PreconditionOf(err)
}

// Package ports - UnitOfWork is the atomic-unit boundary for the engine.
package ports

import "context"

// UnitOfWork runs a function inside one database transaction.
//
// All repository calls made with the context passed to fn share the
// transaction; returning an error rolls everything back, returning nil
// commits. Row locks taken inside fn are released on commit or rollback.
//
// Example:
//
//	err := uow.Execute(ctx, func(txCtx context.Context) error {
//	    wallet, err := walletRepo.FindByUserIDForUpdate(txCtx, userID)
//	    if err != nil {
//	        return err
//	    }
//	    return walletRepo.ApplyDelta(txCtx, wallet, delta)
//	})
type UnitOfWork interface {
	// Execute runs fn inside a transaction. A nested call with a context
	// that already carries a transaction joins it instead of opening a new
	// one.
	Execute(ctx context.Context, fn func(context.Context) error) error

	// ExecuteWithResult is Execute with a return value, for commands that
	// hand back a created entity.
	ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error)
}

// UnitOfWorkFactory creates UnitOfWork instances. Used where a component
// needs isolated transactions with its own settings (e.g. the expiry worker
// giving each row its own sub-unit).
type UnitOfWorkFactory interface {
	New() UnitOfWork
}

package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrWriteConflict is returned when a concurrent transaction touched the same documents first.
var ErrWriteConflict = errors.New("write conflict")

// errAborted marks an abort requested by the transaction body rather than by the server.
type errAborted struct{ err error }

func (e errAborted) Error() string { return e.err.Error() }
func (e errAborted) Unwrap() error { return e.err }

// WithTransaction runs fn inside a session transaction on client. fn's own errors abort the
// transaction and come back unchanged; transient server conflicts come back as ErrWriteConflict.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) error) error {
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return errAborted{err}
		}
		return sc.CommitTransaction(sc)
	})
	if err == nil {
		return nil
	}

	var aborted errAborted
	if errors.As(err, &aborted) && !isTransient(aborted.err) {
		return aborted.err
	}
	if isTransient(err) {
		return ErrWriteConflict
	}
	return fmt.Errorf("transaction failed: %w", err)
}

func isTransient(err error) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel("TransientTransactionError") || se.HasErrorCode(112)
	}
	return false
}

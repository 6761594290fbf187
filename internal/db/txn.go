package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/shoaibhasann/zahra/internal/errors"
	"github.com/shoaibhasann/zahra/pkg/logger"
	"gorm.io/gorm"
)

// ErrTxRetryExhausted is returned when a transaction kept failing with
// transient conflicts across all retry attempts.
var ErrTxRetryExhausted = errors.New("transaction retry attempts exhausted")

const (
	txMaxAttempts = 3
	txBaseBackoff = 50 * time.Millisecond
)

// Every attempt runs at SERIALIZABLE. Under the store's default isolation
// two writers can both read the same row and both commit, losing one
// update; at SERIALIZABLE the second commit fails with a serialization
// conflict (40001), which the classifier marks transient.
var txOptions = &sql.TxOptions{Isolation: sql.LevelSerializable}

// TransientClassifier reports whether a transaction error is worth retrying.
type TransientClassifier func(error) bool

// RunInTxWithRetry executes fn inside a database transaction, retrying with
// exponential backoff when the commit fails with a transient conflict.
// Validation, not-found and duplicate-key failures abort immediately; only
// errors the classifier marks transient are retried. Each attempt opens a
// fresh transaction, so fn re-reads the latest committed state.
func RunInTxWithRetry(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return RunInTxWithClassifier(db, apperrors.IsTransientTxError, fn)
}

// RunInTxWithClassifier is RunInTxWithRetry with a caller-supplied transient
// classifier, for storage backends with richer error types.
func RunInTxWithClassifier(db *gorm.DB, isTransient TransientClassifier, fn func(tx *gorm.DB) error) error {
	backoff := txBaseBackoff

	var err error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		err = db.Transaction(fn, txOptions)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}

		logger.Warn("Transient transaction conflict, retrying", map[string]interface{}{
			"attempt": attempt,
			"max":     txMaxAttempts,
			"backoff": backoff.String(),
			"error":   err.Error(),
		})

		if attempt < txMaxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	logger.Error("Transaction retries exhausted", err, map[string]interface{}{
		"attempts": txMaxAttempts,
	})
	return fmt.Errorf("%w: %v", ErrTxRetryExhausted, err)
}

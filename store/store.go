// Package store holds the downtime record store, the shift detector, the
// reporting engine and the reference-data accessors. Business-rule
// rejections are returned as (message, ok) results, never as errors;
// infrastructure failures are logged and degraded to empty reads or
// generic write-failure messages.
package store

import (
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// runWithRetry executes fn and, if it fails with anything other than a
// missing row, pings the underlying connection and retries once. A second
// failure is logged and returned; callers degrade from there.
func runWithRetry(db *gorm.DB, log zerolog.Logger, fn func(tx *gorm.DB) error) error {
	err := fn(db)
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if sqlDB, dbErr := db.DB(); dbErr == nil {
		if pingErr := sqlDB.Ping(); pingErr != nil {
			log.Warn().Err(pingErr).Msg("database connection lost, reconnecting")
		}
	}

	err = fn(db)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error().Err(err).Msg("query failed after retry")
	}
	return err
}

package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logger"
)

// classify passes domain errors through unchanged and wraps everything else
// as a persistence failure. Infrastructure failures are logged at error level,
// business rejections at debug.
func classify(ctx context.Context, log zerolog.Logger, op string, err error) error {
	if err == nil {
		return nil
	}

	l := logger.FromContext(ctx, log)

	if domain.Kind(err) != "internal" {
		l.Debug().Err(err).Str("operation", op).Msg("operation rejected")
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		l.Warn().Err(err).Str("operation", op).Msg("operation aborted")
	} else {
		l.Error().Err(err).Str("operation", op).Msg("operation failed")
	}

	return fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
}

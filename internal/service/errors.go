package service

import (
	"context"
	"errors"
	"time"

	"dajtovon/internal/models"
	"dajtovon/internal/repository"
)

// storeError translates a repository failure. Missing rows become NotFound for
// resource/id; AppErrors pass through; anything else is a StoreError.
func storeError(err error, resource string, id any) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if repository.IsNotFound(err) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewStoreError(err)
}

// withStoreTimeout bounds one store round trip. A zero timeout leaves ctx as is.
func withStoreTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

package service

import (
	"context"
	"errors"

	"skipped/internal/domain/entity"
)

// Notifier delivers a notification to its addressee. Callers treat delivery
// as best effort and only log failures.
type Notifier interface {
	Notify(ctx context.Context, notification *entity.Notification) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, *entity.Notification) error { return nil }

// MultiNotifier fans a notification out to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, notification *entity.Notification) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, notification); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package repository

import (
	"context"

	"florist/internal/domain/model"
)

// コールバック時に一緒に書き込む値
type CheckoutResultFields struct {
	TransactionID string
}

type CheckoutSessionRepository interface {
	Create(ctx context.Context, s model.CheckoutSession) error
	FindByID(ctx context.Context, id string) (model.CheckoutSession, error)

	//statusがfromのときだけtoに変える。変わったらtrue。
	CompareAndSetStatus(ctx context.Context, id string, from, to model.CheckoutStatus, fields CheckoutResultFields) (bool, error)

	AttachOrder(ctx context.Context, id string, orderID int64) error
	RecordFailure(ctx context.Context, id string, reason string) error
}

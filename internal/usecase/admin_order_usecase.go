package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"florist/internal/domain/model"
	repo "florist/internal/repository"
)

type AdminOrderUsecase struct {
	tx repo.TransactionManager
}

func NewAdminOrderUsecase(tx repo.TransactionManager) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// 注文一覧（全ユーザー）
func (u *AdminOrderUsecase) List(ctx context.Context, q repo.OrderQuery) (OrderListOutput, error) {
	if q.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if q.Limit < 1 || q.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if q.Status != "" {
		if _, ok := model.ParseOrderStatus(string(q.Status)); !ok {
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}
	switch q.PaymentMethod {
	case "", model.PaymentMethodRazorpay, model.PaymentMethodCOD:
	default:
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	var out OrderListOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().List(ctx, q)
		if err != nil {
			return errDB()
		}
		outs, err := withItems(ctx, r.OrderItems(), orders)
		if err != nil {
			return err
		}
		out = OrderListOutput{Items: outs, Total: total, Page: q.Page, Limit: q.Limit}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// ステータス更新。遷移表にない変更は409。cancelledなら在庫戻し
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return errUnauthorized()
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus, ok := model.ParseOrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !ok {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			return nil
		}

		err = r.Orders().TransitionStatus(ctx, orderID, o.Status, newStatus)
		switch {
		case errors.Is(err, model.ErrInvalidTransition):
			return NewHTTPError(http.StatusConflict, fmt.Sprintf("cannot change %s order to %s", o.Status, newStatus))
		case errors.Is(err, repo.ErrConflict):
			return NewHTTPError(http.StatusConflict, "order status changed, reload and retry")
		case errors.Is(err, repo.ErrNotFound):
			return errNotFound()
		case err != nil:
			return errDB()
		}

		now := time.Now()
		if newStatus == model.OrderStatusCancelled {
			// 明細の数量ではなく、注文時に実際に引けた数だけ戻す
			taken, err := r.Inventory().TakenByOrder(ctx, orderID)
			if err != nil {
				return errDB()
			}
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return errDB()
			}
			for _, it := range items {
				qty := taken[it.ProductID]
				if qty <= 0 {
					continue
				}
				// 同じ商品の明細が複数あっても1回だけ
				delete(taken, it.ProductID)
				if err := r.Inventory().Restock(ctx, it.ProductID, qty); err != nil {
					if errors.Is(err, repo.ErrNotFound) {
						continue
					}
					return errDB()
				}
				if err := r.Inventory().RecordAdjustment(ctx, model.InventoryAdjustment{
					ProductID:   it.ProductID,
					Kind:        model.AdjustmentCancel,
					OrderID:     &orderID,
					ActorUserID: actorAdminUserID,
					Delta:       qty,
					Reason:      fmt.Sprintf("order #%d cancelled", orderID),
					CreatedAt:   now,
				}); err != nil {
					return errDB()
				}
			}
		}

		//監査ログ（UPDATE_ORDER_STATUS）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   `{"status":"` + string(o.Status) + `"}`,
			AfterJSON:    `{"status":"` + string(newStatus) + `"}`,
			CreatedAt:    now,
		}); err != nil {
			return errDB()
		}

		return nil
	})
}

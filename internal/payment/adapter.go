package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"florist/internal/domain/model"
	"florist/internal/repository"

	"github.com/google/uuid"
)

// 成功時に呼ばれる。transactionIDはゲートウェイの支払いID
type SuccessHandler func(ctx context.Context, session model.CheckoutSession, transactionID string) error

// キャンセル（ウィジェットを閉じた）時に呼ばれる
type CancelHandler func(ctx context.Context, session model.CheckoutSession) error

type Callbacks struct {
	OnSuccess SuccessHandler
	OnCancel  CancelHandler
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type Theme struct {
	Color string `json:"color"`
}

// ウィジェットを開くときの設定
type CheckoutOptions struct {
	Amount      int64 // 最小単位
	Currency    string
	Name        string
	Description string
	OrderID     string // 決済注文ID
	Prefill     Prefill
	Theme       Theme

	OnSuccess SuccessHandler
	OnCancel  CancelHandler
}

// フロントに返すウィジェット設定
type WidgetConfig struct {
	SessionID   string  `json:"session_id"`
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id,omitempty"`
	Prefill     Prefill `json:"prefill"`
	Theme       Theme   `json:"theme"`
}

type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeCancel  OutcomeKind = "cancel"
)

type Outcome struct {
	Kind          OutcomeKind
	TransactionID string
}

func Succeeded(transactionID string) Outcome {
	return Outcome{Kind: OutcomeSuccess, TransactionID: transactionID}
}

func Cancelled() Outcome {
	return Outcome{Kind: OutcomeCancel}
}

type AdapterConfig struct {
	KeyID    string
	Currency string
	// ゲートウェイ失敗時にローカルで order_<ミリ秒> を作る
	Fallback bool
	// 開いたまま放置されたセッションのハンドラを捨てるまでの時間（0なら24時間）
	HandlerTTL time.Duration
}

type registeredCallbacks struct {
	cb       Callbacks
	openedAt time.Time
}

type Adapter struct {
	gateway  Gateway
	sessions repository.CheckoutSessionRepository
	cfg      AdapterConfig
	log      *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	handlers map[string]registeredCallbacks
	// プロセス再起動などで登録が無いセッション用
	defaults Callbacks
}

func NewAdapter(gateway Gateway, sessions repository.CheckoutSessionRepository, cfg AdapterConfig, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		gateway:  gateway,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		handlers: make(map[string]registeredCallbacks),
	}
}

func (a *Adapter) SetDefaultCallbacks(c Callbacks) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.defaults = c
}

// テスト用
func (a *Adapter) SetClock(now func() time.Time) {
	a.now = now
}

// 決済注文を作る。失敗時はフォールバック設定に従う
func (a *Adapter) CreatePaymentOrder(ctx context.Context, amountMinor int64, receipt string) (PaymentOrder, error) {
	if amountMinor <= 0 {
		return PaymentOrder{}, fmt.Errorf("%w: amount must be positive", ErrOrderCreationFailed)
	}

	var gwErr error
	if a.gateway != nil {
		order, err := a.gateway.CreateOrder(ctx, amountMinor, a.cfg.Currency, receipt)
		if err == nil {
			return order, nil
		}
		gwErr = err
	} else {
		gwErr = ErrGatewayUnavailable
	}

	if !a.cfg.Fallback {
		a.log.ErrorContext(ctx, "payment order creation failed", "receipt", receipt, "err", gwErr)
		return PaymentOrder{}, fmt.Errorf("%w: %w", ErrOrderCreationFailed, gwErr)
	}

	a.log.WarnContext(ctx, "payment order creation failed, using local order", "receipt", receipt, "err", gwErr)
	return PaymentOrder{
		ID:       fmt.Sprintf("order_%d", a.now().UnixMilli()),
		Amount:   amountMinor,
		Currency: a.cfg.Currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

// セッションを保存してウィジェット設定を返す。結果はDeliverで届く
func (a *Adapter) OpenCheckout(ctx context.Context, session model.CheckoutSession, opts CheckoutOptions) (WidgetConfig, error) {
	if a.cfg.KeyID == "" {
		return WidgetConfig{}, ErrGatewayUnavailable
	}
	if opts.Amount <= 0 {
		return WidgetConfig{}, fmt.Errorf("invalid amount")
	}
	if opts.Currency == "" {
		opts.Currency = a.cfg.Currency
	}

	if session.ID == "" {
		session.ID = "cs_" + uuid.NewString()
	}
	session.Status = model.CheckoutStatusOpen
	session.GatewayOrderID = opts.OrderID
	session.AmountMinor = opts.Amount
	session.Currency = opts.Currency

	if err := a.sessions.Create(ctx, session); err != nil {
		return WidgetConfig{}, err
	}

	a.register(session.ID, Callbacks{OnSuccess: opts.OnSuccess, OnCancel: opts.OnCancel})

	return WidgetConfig{
		SessionID:   session.ID,
		Key:         a.cfg.KeyID,
		Amount:      opts.Amount,
		Currency:    opts.Currency,
		Name:        opts.Name,
		Description: opts.Description,
		OrderID:     opts.OrderID,
		Prefill:     opts.Prefill,
		Theme:       opts.Theme,
	}, nil
}

// 期限切れの登録はここで掃除する。捨てられたセッションにはdefaultsが使われる
func (a *Adapter) register(sessionID string, cb Callbacks) {
	now := a.now()
	ttl := a.cfg.HandlerTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for id, r := range a.handlers {
		if now.Sub(r.openedAt) > ttl {
			delete(a.handlers, id)
		}
	}
	if cb.OnSuccess == nil && cb.OnCancel == nil {
		return
	}
	a.handlers[sessionID] = registeredCallbacks{cb: cb, openedAt: now}
}

func (a *Adapter) takeHandlers(sessionID string) Callbacks {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.handlers[sessionID]
	if !ok {
		return a.defaults
	}
	delete(a.handlers, sessionID)
	return r.cb
}

// 成功かキャンセルのどちらか一方だけを、1回だけ配送する。
// 2回目以降は記録済みのセッションとErrAlreadyDeliveredを返す。
func (a *Adapter) Deliver(ctx context.Context, sessionID string, userID int64, outcome Outcome) (model.CheckoutSession, error) {
	session, err := a.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && session.UserID != userID) {
		return model.CheckoutSession{}, ErrSessionNotFound
	}
	if err != nil {
		return model.CheckoutSession{}, err
	}
	if session.Status.IsTerminal() {
		return session, ErrAlreadyDelivered
	}

	to := model.CheckoutStatusCancelled
	fields := repository.CheckoutResultFields{}
	if outcome.Kind == OutcomeSuccess {
		to = model.CheckoutStatusSucceeded
		fields.TransactionID = outcome.TransactionID
	}

	won, err := a.sessions.CompareAndSetStatus(ctx, sessionID, model.CheckoutStatusOpen, to, fields)
	if err != nil {
		return model.CheckoutSession{}, err
	}
	if !won {
		//別のリクエストが先に配送した
		latest, err := a.sessions.FindByID(ctx, sessionID)
		if err != nil {
			return model.CheckoutSession{}, err
		}
		return latest, ErrAlreadyDelivered
	}

	session.Status = to
	session.TransactionID = fields.TransactionID
	cb := a.takeHandlers(sessionID)

	switch outcome.Kind {
	case OutcomeSuccess:
		if cb.OnSuccess == nil {
			return session, nil
		}
		if err := cb.OnSuccess(ctx, session, outcome.TransactionID); err != nil {
			a.log.ErrorContext(ctx, "order creation after payment failed",
				"session_id", sessionID, "transaction_id", outcome.TransactionID, "err", err)
			session.FailureReason = err.Error()
			if rerr := a.sessions.RecordFailure(ctx, sessionID, err.Error()); rerr != nil {
				a.log.ErrorContext(ctx, "record checkout failure", "session_id", sessionID, "err", rerr)
			}
			return session, fmt.Errorf("%w: %v", ErrOrderAfterPayment, err)
		}
	default:
		if cb.OnCancel != nil {
			if err := cb.OnCancel(ctx, session); err != nil {
				return session, err
			}
		}
	}

	return session, nil
}

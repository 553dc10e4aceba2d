package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"florist/internal/payment"
	"florist/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingGateway struct {
	amount   int64
	currency string
	receipt  string
	err      error
}

func (g *recordingGateway) CreateOrder(ctx context.Context, amountMinor int64, currency string, receipt string) (payment.PaymentOrder, error) {
	g.amount, g.currency, g.receipt = amountMinor, currency, receipt
	if g.err != nil {
		return payment.PaymentOrder{}, g.err
	}
	return payment.PaymentOrder{ID: "order_r1", Amount: amountMinor, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func TestRelay_ConvertsRupeesToPaise(t *testing.T) {
	gw := &recordingGateway{}
	uc := usecase.NewRelayUsecase(gw, "INR", nil)

	o, err := uc.CreateOrder(context.Background(), usecase.RelayOrderInput{Amount: dec("949.05")})
	require.NoError(t, err)
	assert.Equal(t, "order_r1", o.ID)
	assert.Equal(t, int64(94905), gw.amount)
	assert.Equal(t, "INR", gw.currency)
	assert.True(t, strings.HasPrefix(gw.receipt, "order_"))
	assert.LessOrEqual(t, len(gw.receipt), 40)
}

func TestRelay_Errors(t *testing.T) {
	gw := &recordingGateway{err: errors.New("The api key provided is invalid")}
	uc := usecase.NewRelayUsecase(gw, "INR", nil)
	ctx := context.Background()

	_, err := uc.CreateOrder(ctx, usecase.RelayOrderInput{Amount: dec("0")})
	requireHTTPStatus(t, err, http.StatusBadRequest)

	_, err = uc.CreateOrder(ctx, usecase.RelayOrderInput{Amount: dec("10"), Receipt: strings.Repeat("r", 41)})
	requireHTTPStatus(t, err, http.StatusBadRequest)

	_, err = uc.CreateOrder(ctx, usecase.RelayOrderInput{Amount: dec("10"), Receipt: "rcpt_1"})
	he := requireHTTPStatus(t, err, http.StatusInternalServerError)
	assert.Equal(t, "failed to create order", he.Message)
	assert.NotContains(t, he.Message, "api key")
	assert.Equal(t, "rcpt_1", gw.receipt)

	gw.err = payment.ErrGatewayUnavailable
	_, err = uc.CreateOrder(ctx, usecase.RelayOrderInput{Amount: dec("10")})
	requireHTTPStatus(t, err, http.StatusServiceUnavailable)
}

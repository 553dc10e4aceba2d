package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// 中継API POST /api/create-order を呼ぶ。
// 中継側はルピーで受け取り、パイサに直してRazorpayへ渡す。
type RelayClient struct {
	baseURL string
	http    *http.Client
}

func NewRelayClient(baseURL string) *RelayClient {
	return &RelayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type RelayRequest struct {
	Amount  json.Number `json:"amount"`
	Receipt string      `json:"receipt"`
}

// currencyは中継側の設定に従う
func (c *RelayClient) CreateOrder(ctx context.Context, amountMinor int64, _ string, receipt string) (PaymentOrder, error) {
	body, err := json.Marshal(RelayRequest{Amount: json.Number(FromMinorUnits(amountMinor).String()), Receipt: receipt})
	if err != nil {
		return PaymentOrder{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/create-order", bytes.NewReader(body))
	if err != nil {
		return PaymentOrder{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	return doOrderRequest(c.http, req)
}

func doOrderRequest(client *http.Client, req *http.Request) (PaymentOrder, error) {
	resp, err := client.Do(req)
	if err != nil {
		return PaymentOrder{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PaymentOrder{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PaymentOrder{}, fmt.Errorf("relay status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var order PaymentOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return PaymentOrder{}, fmt.Errorf("decode relay response: %w", err)
	}
	if order.ID == "" {
		return PaymentOrder{}, fmt.Errorf("relay response has no order id")
	}
	return order, nil
}

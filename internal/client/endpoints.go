package client

import (
	"context"
	"net/http"
	"net/url"

	"maker/internal/common"
)

const (
	QuotePath        = "/quoter/v1.0/quote/receive"
	SubmitPath       = "/relayer/v1.0/submit"
	SubmitSecretPath = "/relayer/v1.0/submit/secret"
	ActiveOrdersPath = "/orders/v1.0/order/active"
	OrderStatusPath  = "/orders/v1.0/order/status/"
	ReadyFillsPath   = "/orders/v1.0/order/ready-to-accept-secret-fills/"
)

// GetQuote fetches a quote. A missing route is ErrQuoteUnavailable.
func (c *Client) GetQuote(ctx context.Context, params common.QuoteRequestParams) (*common.Quote, error) {
	var quote common.Quote
	if err := c.do(ctx, "get quote", http.MethodGet, QuotePath, params, nil, &quote, classifyQuote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// SubmitOrder posts a signed order. Any 4xx is ErrSubmissionRejected.
func (c *Client) SubmitOrder(ctx context.Context, order common.SubmitOrderRequest) error {
	return c.do(ctx, "submit order", http.MethodPost, SubmitPath, nil, order, nil, classifySubmit)
}

// SubmitSecret reveals the secret of one fill.
func (c *Client) SubmitSecret(ctx context.Context, orderHash, secret string) error {
	body := common.SecretSubmission{OrderHash: orderHash, Secret: secret}
	return c.do(ctx, "submit secret", http.MethodPost, SubmitSecretPath, nil, body, nil, classifySubmit)
}

func (c *Client) GetActiveOrders(ctx context.Context, params common.ActiveOrdersParams) (*common.ActiveOrdersResponse, error) {
	var res common.ActiveOrdersResponse
	if err := c.do(ctx, "get active orders", http.MethodGet, ActiveOrdersPath, params, nil, &res, classifyQuery); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetOrderStatus(ctx context.Context, orderHash string) (*common.OrderStatus, error) {
	var res common.OrderStatus
	if err := c.do(ctx, "get order status", http.MethodGet, OrderStatusPath+url.PathEscape(orderHash), nil, nil, &res, classifyQuery); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetReadyToAcceptSecretFills(ctx context.Context, orderHash string) (*common.ReadyToAcceptSecretFills, error) {
	var res common.ReadyToAcceptSecretFills
	if err := c.do(ctx, "get ready fills", http.MethodGet, ReadyFillsPath+url.PathEscape(orderHash), nil, nil, &res, classifyQuery); err != nil {
		return nil, err
	}
	return &res, nil
}

package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"maker/internal/client"
	"maker/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetActiveOrdersDefaults(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, client.ActiveOrdersPath, r.URL.Path)
		got = r.URL.Query()
		_ = json.NewEncoder(w).Encode(common.ActiveOrdersResponse{
			Meta: common.PaginationMeta{CurrentPage: 1, ItemsPerPage: 2},
		})
	}))
	defer srv.Close()

	q := NewQuery(client.New(srv.URL, "key"))
	res, err := q.GetActiveOrders(context.Background(), common.ActiveOrdersParams{})
	require.NoError(t, err)

	assert.Equal(t, "1", got.Get("page"))
	assert.Equal(t, "2", got.Get("limit"))
	assert.Equal(t, 2, res.Meta.ItemsPerPage)

	_, err = q.GetActiveOrders(context.Background(), common.ActiveOrdersParams{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "3", got.Get("page"))
	assert.Equal(t, "10", got.Get("limit"))
}

func TestGetActiveOrdersNegative(t *testing.T) {
	q := NewQuery(client.New("http://127.0.0.1:0", ""))
	_, err := q.GetActiveOrders(context.Background(), common.ActiveOrdersParams{Page: -1})
	assert.ErrorIs(t, err, common.ErrInvalidParams)
}

func TestGetOrderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != client.OrderStatusPath+"0xabc" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(common.OrderStatus{
			OrderHash: "0xabc",
			Status:    common.OrderStatusPending,
			Fills:     []common.Fill{{Idx: 0, Status: common.Executed}},
		})
	}))
	defer srv.Close()

	q := NewQuery(client.New(srv.URL, ""))

	status, err := q.GetOrderStatus(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyFilled, status)

	_, err = q.GetOrderStatus(context.Background(), "0xdef")
	assert.ErrorIs(t, err, common.ErrOrderNotFound)

	_, err = q.GetOrderStatus(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrInvalidParams)
}

func TestMapStatus(t *testing.T) {
	cases := []struct {
		wire  common.OrderStatusMode
		fills []common.Fill
		want  Status
	}{
		{common.OrderStatusPending, nil, StatusCreated},
		{common.OrderStatusPending, []common.Fill{{Status: common.Pending}}, StatusCreated},
		{common.OrderStatusPending, []common.Fill{{Status: common.Pending}, {Status: common.Executed}}, StatusPartiallyFilled},
		{common.OrderStatusExecuted, nil, StatusFilled},
		{common.OrderStatusExpired, nil, StatusExpired},
		{common.OrderStatusCancelled, nil, StatusCancelled},
		{common.OrderStatusRefunding, nil, StatusCancelled},
		{common.OrderStatusRefunded, nil, StatusCancelled},
		{"mystery", nil, StatusUnknown},
	}

	for _, tc := range cases {
		got := MapStatus(&common.OrderStatus{Status: tc.wire, Fills: tc.fills})
		assert.Equal(t, tc.want, got, "wire status %s", tc.wire)
	}

	assert.True(t, StatusFilled.Final())
	assert.False(t, StatusPartiallyFilled.Final())
	assert.Equal(t, "PartiallyFilled", StatusPartiallyFilled.String())
}

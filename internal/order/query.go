package order

import (
	"context"
	"fmt"

	"maker/internal/common"
)

// Documented defaults of the active orders listing.
const (
	DefaultPage  = 1
	DefaultLimit = 2
)

// Status is the client-side view of an order's lifecycle.
type Status int

const (
	StatusUnknown Status = iota
	StatusCreated
	StatusPartiallyFilled
	StatusFilled
	StatusExpired
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "Created"
	case StatusPartiallyFilled:
		return "PartiallyFilled"
	case StatusFilled:
		return "Filled"
	case StatusExpired:
		return "Expired"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Final reports whether the order can no longer change.
func (s Status) Final() bool {
	return s == StatusFilled || s == StatusExpired || s == StatusCancelled
}

// OrdersSource is the read side of the orders API.
type OrdersSource interface {
	GetActiveOrders(ctx context.Context, params common.ActiveOrdersParams) (*common.ActiveOrdersResponse, error)
	GetOrderStatus(ctx context.Context, orderHash string) (*common.OrderStatus, error)
}

type Query struct {
	source OrdersSource
}

func NewQuery(source OrdersSource) *Query {
	return &Query{source: source}
}

// GetActiveOrders lists active orders. Zero page or limit take the
// defaults; results are never cached.
func (q *Query) GetActiveOrders(ctx context.Context, params common.ActiveOrdersParams) (*common.ActiveOrdersResponse, error) {
	if params.Page < 0 || params.Limit < 0 {
		return nil, fmt.Errorf("%w: page %d limit %d", common.ErrInvalidParams, params.Page, params.Limit)
	}
	if params.Page == 0 {
		params.Page = DefaultPage
	}
	if params.Limit == 0 {
		params.Limit = DefaultLimit
	}
	return q.source.GetActiveOrders(ctx, params)
}

// GetOrderStatus returns the lifecycle status of the order.
func (q *Query) GetOrderStatus(ctx context.Context, orderHash string) (Status, error) {
	status, err := q.GetOrderStatusDetail(ctx, orderHash)
	if err != nil {
		return StatusUnknown, err
	}
	return MapStatus(status), nil
}

// GetOrderStatusDetail returns the full status document.
func (q *Query) GetOrderStatusDetail(ctx context.Context, orderHash string) (*common.OrderStatus, error) {
	if orderHash == "" {
		return nil, fmt.Errorf("%w: empty order hash", common.ErrInvalidParams)
	}
	return q.source.GetOrderStatus(ctx, orderHash)
}

// MapStatus folds the wire status and fills into a Status.
func MapStatus(s *common.OrderStatus) Status {
	switch s.Status {
	case common.OrderStatusPending:
		for _, f := range s.Fills {
			if f.Status == common.Executed {
				return StatusPartiallyFilled
			}
		}
		return StatusCreated
	case common.OrderStatusExecuted:
		return StatusFilled
	case common.OrderStatusExpired:
		return StatusExpired
	case common.OrderStatusCancelled, common.OrderStatusRefunding, common.OrderStatusRefunded:
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

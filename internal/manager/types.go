package manager

import (
	"sync"
	"time"

	"maker/internal/common"

	"github.com/google/uuid"
)

type QuoteEntry struct {
	QuoteID      uuid.UUID
	QuoteRequest *common.QuoteRequestParams
	Quote        *common.Quote
	used         bool
}

// OrderEntry is an accepted order together with its fill progress.
type OrderEntry struct {
	OrderHash    string
	Order        *common.SubmitOrderRequest
	QuoteRequest *common.QuoteRequestParams
	OrderStatus  *common.OrderStatus
	CreatedAt    time.Time
	Deadline     time.Time

	OrderMutMutex *sync.Mutex
	// fills awaiting a secret, by index
	ready map[int]common.ReadyToAcceptSecretFill
	// fills whose secret was published, by index
	executed map[int]common.Fill
}

func NewOrderEntry(orderHash string, order *common.SubmitOrderRequest, status *common.OrderStatus) *OrderEntry {
	return &OrderEntry{
		OrderHash:     orderHash,
		Order:         order,
		OrderStatus:   status,
		CreatedAt:     time.Now(),
		OrderMutMutex: new(sync.Mutex),
		ready:         make(map[int]common.ReadyToAcceptSecretFill),
		executed:      make(map[int]common.Fill),
	}
}

// ReadyFills returns the fills awaiting a secret ordered by index.
func (e *OrderEntry) ReadyFills() []common.ReadyToAcceptSecretFill {
	e.OrderMutMutex.Lock()
	defer e.OrderMutMutex.Unlock()

	fills := make([]common.ReadyToAcceptSecretFill, 0, len(e.ready))
	for idx := 0; idx < len(e.Order.SecretHashes); idx++ {
		if f, ok := e.ready[idx]; ok {
			fills = append(fills, f)
		}
	}
	return fills
}

// Status returns a snapshot of the order status including its fills.
func (e *OrderEntry) Status() common.OrderStatus {
	e.OrderMutMutex.Lock()
	defer e.OrderMutMutex.Unlock()

	status := *e.OrderStatus
	status.Fills = make([]common.Fill, 0, len(e.ready)+len(e.executed))
	for idx := 0; idx < len(e.Order.SecretHashes); idx++ {
		if f, ok := e.executed[idx]; ok {
			status.Fills = append(status.Fills, f)
			continue
		}
		if f, ok := e.ready[idx]; ok {
			status.Fills = append(status.Fills, common.Fill{
				Idx:    idx,
				Status: common.Pending,
				TxHash: f.SrcEscrowDeployTxHash,
			})
		}
	}
	return status
}

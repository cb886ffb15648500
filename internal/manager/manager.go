package manager

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"maker/internal/common"

	"github.com/imkira/go-ttlmap"
	"go.uber.org/zap"
)

var (
	ErrQuoteNotFound = errors.New("quote not found")
	ErrQuoteUsed     = errors.New("quote already used")
	ErrOrderNotFound = errors.New("order not found")
	ErrOrderExists   = errors.New("order already submitted")
)

// Manager holds the relayer state: quotes handed out, orders accepted and
// the event broadcaster resolvers listen on.
type Manager struct {
	*common.Broadcaster

	quotes *ttlmap.Map
	orders *ttlmap.Map

	// quotes are consumed under this lock
	quoteMu *sync.Mutex
	// order hashes in submission order, for listing
	indexMu *sync.Mutex
	index   []string

	logger *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	logger = logger.With(zap.String("module", "manager"))

	options := func(kind string) *ttlmap.Options {
		return &ttlmap.Options{
			InitialCapacity: 32,
			OnWillExpire: func(key string, _ ttlmap.Item) {
				logger.Debug("expired", zap.String("kind", kind), zap.String("key", key))
			},
			OnWillEvict: func(key string, _ ttlmap.Item) {
				logger.Debug("evicted", zap.String("kind", kind), zap.String("key", key))
			},
		}
	}

	return &Manager{
		Broadcaster: common.NewBroadcaster(logger),
		quotes:      ttlmap.New(options("quote")),
		orders:      ttlmap.New(options("order")),
		quoteMu:     new(sync.Mutex),
		indexMu:     new(sync.Mutex),
		logger:      logger,
	}
}

func orderKey(orderHash string) string {
	return strings.ToLower(orderHash)
}

func (m *Manager) SetQuote(entry QuoteEntry) error {
	return m.quotes.Set(entry.QuoteID.String(), ttlmap.NewItem(&entry, ttlmap.WithTTL(QuoteTTL)), nil)
}

func (m *Manager) GetQuote(quoteID string) (*QuoteEntry, error) {
	item, err := m.quotes.Get(quoteID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrQuoteNotFound, quoteID)
	}

	entry, ok := item.Value().(*QuoteEntry)
	if !ok || entry == nil {
		return nil, fmt.Errorf("invalid quote type for ID: %s", quoteID)
	}

	return entry, nil
}

// ConsumeQuote marks the quote as spent. A quote backs at most one order.
func (m *Manager) ConsumeQuote(quoteID string) (*QuoteEntry, error) {
	m.quoteMu.Lock()
	defer m.quoteMu.Unlock()

	entry, err := m.GetQuote(quoteID)
	if err != nil {
		return nil, err
	}
	if entry.used {
		return nil, fmt.Errorf("%w: %s", ErrQuoteUsed, quoteID)
	}
	entry.used = true
	return entry, nil
}

// SetOrder stores the order until the public cancellation of the source
// escrow.
func (m *Manager) SetOrder(entry *OrderEntry, quote *common.Quote) error {
	ttl := time.Second * time.Duration(quote.TimeLocks.SrcPublicCancellation)
	if ttl <= 0 {
		ttl = DefaultOrderTTL
	}

	key := orderKey(entry.OrderHash)

	// indexMu serializes the existence check with the insert.
	m.indexMu.Lock()
	defer m.indexMu.Unlock()

	if _, err := m.orders.Get(key); err == nil {
		return fmt.Errorf("%w: %s", ErrOrderExists, entry.OrderHash)
	}
	if err := m.orders.Set(key, ttlmap.NewItem(entry, ttlmap.WithTTL(ttl)), nil); err != nil {
		return err
	}
	m.index = append(m.index, key)
	return nil
}

func (m *Manager) GetOrder(orderHash string) (*OrderEntry, error) {
	item, err := m.orders.Get(orderKey(orderHash))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderHash)
	}

	orderEntry, ok := item.Value().(*OrderEntry)
	if !ok || orderEntry == nil {
		return nil, fmt.Errorf("invalid order type for hash: %s", orderHash)
	}

	return orderEntry, nil
}

// ActiveOrders pages over pending orders in submission order.
func (m *Manager) ActiveOrders(page, limit int) common.ActiveOrdersResponse {
	page, limit = max(page, 1), max(limit, 1)

	m.indexMu.Lock()
	keys := append([]string(nil), m.index...)
	m.indexMu.Unlock()

	var (
		active []*OrderEntry
		gone   = map[string]bool{}
	)
	for _, key := range keys {
		entry, err := m.GetOrder(key)
		if err != nil {
			gone[key] = true
			continue
		}
		if entry.Status().Status == common.OrderStatusPending {
			active = append(active, entry)
		}
	}
	m.prune(gone)

	res := common.ActiveOrdersResponse{
		Meta: common.PaginationMeta{
			TotalItems:   len(active),
			ItemsPerPage: limit,
			TotalPages:   (len(active) + limit - 1) / limit,
			CurrentPage:  page,
		},
		Items: []common.ActiveOrder{},
	}

	start := (page - 1) * limit
	if start >= len(active) {
		return res
	}
	end := min(start+limit, len(active))
	for _, entry := range active[start:end] {
		res.Items = append(res.Items, entry.activeOrder())
	}
	return res
}

func (m *Manager) prune(gone map[string]bool) {
	if len(gone) == 0 {
		return
	}
	m.indexMu.Lock()
	defer m.indexMu.Unlock()

	kept := m.index[:0]
	for _, key := range m.index {
		if !gone[key] {
			kept = append(kept, key)
		}
	}
	m.index = kept
}

func (e *OrderEntry) activeOrder() common.ActiveOrder {
	order := e.Order
	var dst common.ChainID
	if e.QuoteRequest != nil {
		dst = e.QuoteRequest.DstChain
	}
	status := e.Status()

	return common.ActiveOrder{
		OrderHash:            e.OrderHash,
		QuoteID:              order.QuoteID,
		SrcChainID:           order.SrcChainID,
		DstChainID:           dst,
		Signature:            order.Signature,
		Order:                order.LimitOrder,
		Extension:            order.Extension,
		SecretHashes:         order.SecretHashes,
		RemainingMakerAmount: order.LimitOrder.MakingAmount,
		AuctionStartDate:     status.AuctionStartDate,
		AuctionEndDate:       status.AuctionStartDate + status.AuctionDuration,
		Deadline:             e.Deadline.Unix(),
	}
}

func (m *Manager) Close() {
	m.Broadcaster.Close()
	m.quotes.Drain()
	m.orders.Drain()
}

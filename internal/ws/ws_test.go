package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"maker/internal/common"
	"maker/internal/manager"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolverSession(t *testing.T) {
	m := manager.NewManager(zap.NewNop())
	defer m.Close()

	entry := manager.NewOrderEntry("0xfeed", &common.SubmitOrderRequest{
		QuoteID:      uuid.New(),
		SecretHashes: []string{"0x01", "0x02"},
	}, &common.OrderStatus{Status: common.OrderStatusPending})
	require.NoError(t, m.SetOrder(entry, &common.Quote{}))

	srv := httptest.NewServer(NewHandler(m, zap.NewNop()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer c.CloseNow()

	require.Eventually(t, func() bool { return m.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, m.HandleOrderEvent(entry))
	_, msg, err := c.Read(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(msg), "BROADC 0xfeed "))

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte("TXHASH 0xfeed 1 0xsrc 0xdst")))
	require.Eventually(t, func() bool { return len(entry.ReadyFills()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, entry.ReadyFills()[0].Idx)

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte("NOPE")))
	_, msg, err = c.Read(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(msg), "ERROR "), string(msg))
}

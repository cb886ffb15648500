package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"maker/internal/api"
	"maker/internal/common"
	"maker/internal/manager"
	"maker/internal/secret"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := cmd.Execute()
	return out.String(), err
}

func localRelayer(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m := manager.NewManager(zap.NewNop())
	srv := httptest.NewServer(api.NewRouter(api.Options{}, m, zap.NewNop()))
	t.Cleanup(func() {
		srv.Close()
		m.Close()
	})
	t.Setenv("FUSION_URL", srv.URL)
	t.Setenv("LOG_LEVEL", "error")
}

func TestOrdersCommand(t *testing.T) {
	localRelayer(t)

	out, err := run(t, "orders")
	require.NoError(t, err)

	var res common.ActiveOrdersResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Meta.CurrentPage)
	assert.Equal(t, 2, res.Meta.ItemsPerPage)
}

func TestQuoteCommand(t *testing.T) {
	localRelayer(t)

	out, err := run(t, "quote",
		"--src-token", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"--dst-token", "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
		"--amount", "5000",
	)
	require.NoError(t, err)

	var quote common.Quote
	require.NoError(t, json.Unmarshal([]byte(out), &quote))
	assert.Equal(t, "5000", quote.SrcTokenAmount)
}

func TestStatusUnknownOrder(t *testing.T) {
	localRelayer(t)

	_, err := run(t, "status", "0xdead")
	assert.ErrorIs(t, err, common.ErrOrderNotFound)
}

func TestPlaceNeedsIdentity(t *testing.T) {
	localRelayer(t)
	for _, key := range []string{"PRIVATE_KEY", "WALLET_ADDRESS", "RPC_URL", "AUTH_KEY"} {
		t.Setenv(key, "")
	}

	_, err := run(t, "place",
		"--src-token", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"--dst-token", "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
		"--amount", "5000",
	)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestSecretsFileRoundTrip(t *testing.T) {
	secrets, err := secret.NewVault(nil).Generate(3)
	require.NoError(t, err)

	store := secret.NewStore(time.Hour, zap.NewNop())
	defer store.Close()
	require.NoError(t, store.Keep("0xabc", secrets))

	path := filepath.Join(t.TempDir(), "secrets.json")
	require.NoError(t, writeSecretsFile(path, store, &common.OrderAck{OrderHash: "0xabc", SrcChainID: common.EthereumMainnet}))

	orderHash, got, err := readSecretsFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", orderHash)
	assert.Equal(t, secrets, got)
}

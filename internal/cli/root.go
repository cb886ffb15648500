package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"maker/internal/client"
	"maker/internal/config"
	"maker/internal/logging"
	"maker/internal/signer"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every command needs once flags are parsed.
type app struct {
	envFile string
	cfg     config.Config
	logger  *zap.Logger
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

func (a *app) client() *client.Client {
	return client.New(a.cfg.FusionURL, a.cfg.AuthKey,
		client.WithHTTPClient(&http.Client{Timeout: a.cfg.HTTPTimeout}),
		client.WithLogger(a.logger),
	)
}

// signer dials RPC_URL and loads PRIVATE_KEY. The caller closes the client.
func (a *app) signer() (*signer.PrivateKeySigner, *ethclient.Client, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, nil, err
	}
	rpc, err := ethclient.Dial(a.cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial rpc: %w", err)
	}
	s, err := signer.NewPrivateKeySigner(a.cfg.PrivateKey, rpc)
	if err != nil {
		rpc.Close()
		return nil, nil, err
	}
	return s, rpc, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:               "maker",
		Short:             "Fusion+ cross-chain swap maker",
		Long:              `Requests quotes, places hash-locked cross-chain orders and reveals their secrets as fills land.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "env file to load (default .env)")

	root.AddCommand(
		newQuoteCmd(a),
		newPlaceCmd(a),
		newOrdersCmd(a),
		newStatusCmd(a),
		newRevealCmd(a),
		newApproveCmd(a),
		newRelayerCmd(a),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

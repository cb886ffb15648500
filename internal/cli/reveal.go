package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"maker/internal/common"
	"maker/internal/secret"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

// secretsFile is the export format of an order's secrets, in leaf order.
type secretsFile struct {
	OrderHash  string         `json:"orderHash"`
	SrcChainID common.ChainID `json:"srcChainId"`
	Secrets    []string       `json:"secrets"`
}

func writeSecretsFile(path string, store *secret.Store, ack *common.OrderAck) error {
	n, err := store.Count(ack.OrderHash)
	if err != nil {
		return err
	}

	out := secretsFile{OrderHash: ack.OrderHash, SrcChainID: ack.SrcChainID, Secrets: make([]string, n)}
	for i := range out.Secrets {
		s, err := store.Secret(ack.OrderHash, i)
		if err != nil {
			return err
		}
		out.Secrets[i] = s.Hex()
		s.Wipe()
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func readSecretsFile(path string) (string, []secret.Secret, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	var in secretsFile
	if err := json.Unmarshal(raw, &in); err != nil {
		return "", nil, fmt.Errorf("invalid secrets file: %w", err)
	}

	secrets := make([]secret.Secret, len(in.Secrets))
	for i, h := range in.Secrets {
		b, err := hexutil.Decode(h)
		if err != nil || len(b) != secret.Size {
			secret.WipeAll(secrets)
			return "", nil, fmt.Errorf("invalid secret %d in %s", i, path)
		}
		copy(secrets[i][:], b)
	}
	return in.OrderHash, secrets, nil
}

func newRevealCmd(a *app) *cobra.Command {
	var (
		reveal   revealFlags
		dstChain uint64
	)

	cmd := &cobra.Command{
		Use:   "reveal <secrets-file>",
		Short: "Reveal exported secrets of an order as its fills become ready",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, rpc, err := a.signer()
			if err != nil {
				return err
			}
			defer rpc.Close()

			orderHash, secrets, err := readSecretsFile(args[0])
			if err != nil {
				return err
			}
			store := secret.NewStore(secret.DefaultTTL, a.logger)
			defer store.Close()

			err = store.Keep(orderHash, secrets)
			secret.WipeAll(secrets)
			if err != nil {
				return err
			}

			return a.watch(cmd.Context(), store, orderHash, common.ChainID(dstChain), rpc, reveal)
		},
	}

	reveal.register(cmd)
	cmd.Flags().Uint64Var(&dstChain, "dst-chain", uint64(common.ArbitrumOne), "destination chain id of the order")
	return cmd
}

package chain

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/block-vision/sui-go-sdk/models"
	"github.com/block-vision/sui-go-sdk/sui"
	"github.com/ethereum/go-ethereum/common"
)

// Go representation of the Move event:
//
//	public struct DstEscrowCreatedEvent has copy, drop {
//	    id: ID,
//	    hashlock: vector<u8>,
//	    taker: address,
//	    token_package_id: String,
//	    amount: u64,
//	}
type DstEscrowCreatedEvent struct {
	ID             string
	Hashlock       []byte
	Taker          models.SuiAddress
	TokenPackageID string
	Amount         uint64
}

const dstEscrowEventSuffix = "::DstEscrowCreatedEvent"

// FetchMoveDstEscrowEvent fetches tx events and returns the first DstEscrowCreatedEvent found.
func FetchMoveDstEscrowEvent(ctx context.Context, cli sui.ISuiAPI, txDigest string) (*DstEscrowCreatedEvent, error) {
	evResp, err := cli.SuiGetEvents(ctx, models.SuiGetEventsRequest{
		Digest: txDigest,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}

	// Re-marshal so both the plain and the paginated response shapes decode.
	raw, err := json.Marshal(evResp)
	if err != nil {
		return nil, fmt.Errorf("marshal events: %w", err)
	}

	return findDstEscrowCreated(raw, txDigest)
}

type moveEvent struct {
	Type       string          `json:"type"`
	ParsedJson json.RawMessage `json:"parsedJson"`
}

func findDstEscrowCreated(raw []byte, txDigest string) (*DstEscrowCreatedEvent, error) {
	var events []moveEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		var paginated struct {
			Data []moveEvent `json:"data"`
		}
		if err := json.Unmarshal(raw, &paginated); err != nil {
			return nil, fmt.Errorf("unsupported events response: %w", err)
		}
		events = paginated.Data
	}

	if len(events) == 0 {
		return nil, errors.New("no events found for transaction")
	}

	for _, ev := range events {
		if !strings.HasSuffix(ev.Type, dstEscrowEventSuffix) {
			continue
		}
		return decodeDstEscrowCreated(ev.ParsedJson)
	}

	return nil, fmt.Errorf("event %s not found in tx %s", dstEscrowEventSuffix, txDigest)
}

// moveEventFields is the parsedJson of a DstEscrowCreatedEvent. u64 values
// arrive as decimal strings.
type moveEventFields struct {
	ID             string    `json:"id"`
	Hashlock       moveBytes `json:"hashlock"`
	Taker          string    `json:"taker"`
	TokenPackageID string    `json:"token_package_id"`
	Amount         string    `json:"amount"`
}

func decodeDstEscrowCreated(parsedJson []byte) (*DstEscrowCreatedEvent, error) {
	var f moveEventFields
	if err := json.Unmarshal(parsedJson, &f); err != nil {
		return nil, fmt.Errorf("unmarshal event fields: %w", err)
	}
	amount, err := strconv.ParseUint(f.Amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse amount u64: %w", err)
	}
	return &DstEscrowCreatedEvent{
		ID:             f.ID,
		Hashlock:       f.Hashlock,
		Taker:          models.SuiAddress(f.Taker),
		TokenPackageID: f.TokenPackageID,
		Amount:         amount,
	}, nil
}

// moveBytes is a vector<u8> as rendered by Sui RPC nodes: a 0x hex string,
// a base64 string or an array of numbers.
type moveBytes []byte

func (b *moveBytes) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var decoded []byte
		switch {
		case s == "":
		case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
			decoded, err = hex.DecodeString(s[2:])
		default:
			decoded, err = base64.StdEncoding.DecodeString(s)
		}
		if err != nil {
			return fmt.Errorf("decode bytes %q: %w", s, err)
		}
		*b = decoded
		return nil
	}

	var values []int
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("unsupported bytes JSON: %s", raw)
	}
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return fmt.Errorf("element %d out of byte range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// MoveDstEscrows reads hashlocks from Sui escrow deployments.
type MoveDstEscrows struct {
	Client sui.ISuiAPI
}

func (m MoveDstEscrows) Hashlock(ctx context.Context, txDigest string) (common.Hash, error) {
	evt, err := FetchMoveDstEscrowEvent(ctx, m.Client, txDigest)
	if err != nil {
		return common.Hash{}, err
	}
	if len(evt.Hashlock) != common.HashLength {
		return common.Hash{}, fmt.Errorf("hashlock has %d bytes", len(evt.Hashlock))
	}
	return common.BytesToHash(evt.Hashlock), nil
}

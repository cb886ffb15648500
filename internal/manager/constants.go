package manager

import (
	"time"
)

const (
	// QuoteTTL bounds how long a quote can back a submission.
	QuoteTTL = time.Minute * 15
	// DefaultOrderTTL applies when the quote carries no public cancellation timelock.
	DefaultOrderTTL = time.Hour
)

const (
	// Relayer -> Resolver

	// Order broadcast event: BROADC <ORDER_HASH_HEX> <ACTUAL_JSON_OF_ORDER>
	ORDER_EVENT = "BROADC"
	// broadcast orderhash and secret: SECRET <ORDER_HASH_HEX> <IDX> <SECRET_HEX> [<PROOF_HEX,...>]
	// the proof is sent for multi-fill orders only
	SECRET_EVENT = "SECRET"

	// Resolver -> Relayer

	// Transaction hash event: TXHASH <ORDER_HASH_HEX> <IDX> <SRC_TX_HASH> <DST_TX_HASH>
	// The IDX may be omitted for single fill orders.
	TXHASH_EVENT = "TXHASH"
)

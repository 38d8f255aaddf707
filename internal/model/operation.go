package model

// Operation kinds accepted by the simulator.
const (
	OpMint             = "mint"
	OpApprove          = "approve"
	OpTransfer         = "transfer"
	OpCreatePool       = "create_pool"
	OpAddLiquidity     = "add_liquidity"
	OpRemoveLiquidity  = "remove_liquidity"
	OpTransferShares   = "transfer_shares"
	OpSwapBaseForToken = "swap_base_for_token"
	OpSwapTokenForBase = "swap_token_for_base"
	OpSwapTokenToToken = "swap_token_for_token"
	OpQuoteTokenOutput = "quote_token_output"
	OpQuoteBaseOutput  = "quote_base_output"
)

// Operation is one line of a simulation input. Amounts are base-10 integers in
// the asset's smallest unit; addresses are hex. Timestamp and Deadline are unix
// seconds. A zero Deadline means the operation's own Timestamp.
type Operation struct {
	Seq        uint64 `json:"seq"`
	Timestamp  int64  `json:"timestamp"`
	Op         string `json:"op"`
	Caller     string `json:"caller,omitempty"`
	Token      string `json:"token,omitempty"`
	OtherToken string `json:"other_token,omitempty"`
	// Recipient is the swap recipient, the transfer target or the approved
	// spender.
	Recipient string `json:"recipient,omitempty"`
	Amount    string `json:"amount,omitempty"`
	MinOut    string `json:"min_out,omitempty"`
	MaxToken  string `json:"max_token,omitempty"`
	MinBase   string `json:"min_base,omitempty"`
	MinToken  string `json:"min_token,omitempty"`
	Deadline  int64  `json:"deadline,omitempty"`
}

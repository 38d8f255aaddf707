package model

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Receipt records the outcome of one Operation.
type Receipt struct {
	Seq       uint64 `json:"seq"`
	Timestamp int64  `json:"timestamp"`
	Op        string `json:"op"`
	Status    string `json:"status"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
	Pool      string `json:"pool,omitempty"`
	// Output is the primary result: shares minted, tokens bought or the quote.
	Output   string        `json:"output,omitempty"`
	BaseOut  string        `json:"base_out,omitempty"`
	TokenOut string        `json:"token_out,omitempty"`
	Reserves *PoolReserves `json:"reserves,omitempty"`
}

// PoolReserves are a pool's totals after an operation.
type PoolReserves struct {
	Base        string `json:"base"`
	Token       string `json:"token"`
	TotalShares string `json:"total_shares"`
}

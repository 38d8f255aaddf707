package model

// Snapshot is the persisted state of a simulation: the registry's pools and
// every asset ledger. LastSeq is the last operation applied to it.
type Snapshot struct {
	Registry  string       `json:"registry"`
	BaseToken string       `json:"base_token"`
	LastSeq   uint64       `json:"last_seq"`
	Tokens    []TokenState `json:"tokens"`
	Pools     []PoolState  `json:"pools"`
	UpdatedAt string       `json:"updated_at"`
}

// TokenState holds one asset ledger. The base currency is stored like any
// other token.
type TokenState struct {
	TokenMeta
	Balances   []BalanceRecord   `json:"balances,omitempty"`
	Allowances []AllowanceRecord `json:"allowances,omitempty"`
}

type BalanceRecord struct {
	Holder string `json:"holder"`
	Amount string `json:"amount"`
}

type AllowanceRecord struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

// PoolState holds one pool's ledger, in creation order within a Snapshot.
type PoolState struct {
	Address  string        `json:"address"`
	Token    string        `json:"token"`
	Reserves PoolReserves  `json:"reserves"`
	Holdings []ShareRecord `json:"holdings,omitempty"`
}

type ShareRecord struct {
	Holder string `json:"holder"`
	Shares string `json:"shares"`
}

package sim

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammSwap/internal/asset"
	"ammSwap/internal/exchange"
	"ammSwap/internal/model"
	"ammSwap/internal/units"
)

// ErrInvalidOperation marks an operation that could not be interpreted.
var ErrInvalidOperation = errors.New("invalid operation")

// ErrorKind names the failure of an operation: an exchange error kind, an
// asset ledger failure, or InvalidOperation.
func ErrorKind(err error) string {
	if kind := exchange.Kind(err); kind != "Unknown" {
		return kind
	}
	switch {
	case errors.Is(err, ErrInvalidOperation):
		return "InvalidOperation"
	case errors.Is(err, asset.ErrInsufficientBalance):
		return "InsufficientBalance"
	case errors.Is(err, asset.ErrInsufficientAllowance):
		return "InsufficientAllowance"
	case errors.Is(err, asset.ErrInvalidAmount):
		return "InvalidAmount"
	case errors.Is(err, asset.ErrZeroAddress):
		return "ZeroAddress"
	}
	return "Unknown"
}

// Apply executes one operation at its own timestamp and returns its receipt.
func (r *Runner) Apply(ctx context.Context, op model.Operation) model.Receipt {
	r.now = time.Unix(op.Timestamp, 0).UTC()
	r.lastSeq = op.Seq

	receipt := model.Receipt{
		Seq:       op.Seq,
		Timestamp: op.Timestamp,
		Op:        op.Op,
		Status:    model.StatusOK,
	}
	if err := r.dispatch(ctx, op, &receipt); err != nil {
		receipt.Status = model.StatusFailed
		receipt.ErrorKind = ErrorKind(err)
		receipt.Error = err.Error()
		r.logger.Debug("operation rejected",
			zap.Uint64("seq", op.Seq),
			zap.String("op", op.Op),
			zap.String("kind", receipt.ErrorKind),
			zap.Error(err),
		)
	}
	return receipt
}

func (r *Runner) dispatch(ctx context.Context, op model.Operation, rec *model.Receipt) error {
	var p parser
	deadline := time.Unix(op.Timestamp, 0).UTC()
	if op.Deadline != 0 {
		deadline = time.Unix(op.Deadline, 0).UTC()
	}

	switch op.Op {
	case model.OpMint:
		holder := p.address("recipient", op.Recipient)
		if op.Recipient == "" {
			holder = p.address("caller", op.Caller)
		}
		amount := p.amount("amount", op.Amount)
		tokenAddr := p.optionalToken(op.Token, r.cfg.BaseToken)
		if p.err != nil {
			return p.err
		}
		token, err := r.ensureToken(ctx, tokenAddr)
		if err != nil {
			return err
		}
		return token.Mint(holder, amount)

	case model.OpApprove, model.OpTransfer:
		caller := p.address("caller", op.Caller)
		target := p.address("recipient", op.Recipient)
		amount := p.amount("amount", op.Amount)
		tokenAddr := p.optionalToken(op.Token, r.cfg.BaseToken)
		if p.err != nil {
			return p.err
		}
		token, ok := r.book.Token(tokenAddr)
		if !ok {
			return fmt.Errorf("%w: unknown token %s", ErrInvalidOperation, op.Token)
		}
		if op.Op == model.OpApprove {
			return token.Approve(caller, target, amount)
		}
		return token.Transfer(caller, target, amount)

	case model.OpCreatePool:
		tokenAddr := p.address("token", op.Token)
		if p.err != nil {
			return p.err
		}
		if tokenAddr != r.cfg.BaseToken && tokenAddr != r.cfg.Registry && tokenAddr != (common.Address{}) {
			if _, err := r.ensureToken(ctx, tokenAddr); err != nil {
				return err
			}
		}
		pool, err := r.registry.CreatePool(tokenAddr)
		if err != nil {
			return err
		}
		describe(rec, pool)
		return nil
	}

	pool, err := r.pool(&p, op.Token)
	if err != nil {
		return err
	}
	defer describe(rec, pool)

	switch op.Op {
	case model.OpAddLiquidity:
		caller := p.address("caller", op.Caller)
		base := p.amount("amount", op.Amount)
		maxToken := p.amount("max_token", op.MaxToken)
		if p.err != nil {
			return p.err
		}
		shares, err := pool.AddLiquidity(caller, base, maxToken, deadline)
		if err != nil {
			return err
		}
		rec.Output = shares.String()

	case model.OpRemoveLiquidity:
		caller := p.address("caller", op.Caller)
		shares := p.amount("amount", op.Amount)
		minBase := p.amount("min_base", op.MinBase)
		minToken := p.amount("min_token", op.MinToken)
		if p.err != nil {
			return p.err
		}
		baseOut, tokenOut, err := pool.RemoveLiquidity(caller, shares, minBase, minToken, deadline)
		if err != nil {
			return err
		}
		rec.BaseOut = baseOut.String()
		rec.TokenOut = tokenOut.String()

	case model.OpTransferShares:
		caller := p.address("caller", op.Caller)
		target := p.address("recipient", op.Recipient)
		shares := p.amount("amount", op.Amount)
		if p.err != nil {
			return p.err
		}
		if err := pool.TransferShares(caller, target, shares); err != nil {
			return err
		}
		rec.Output = shares.String()

	case model.OpSwapBaseForToken:
		caller := p.address("caller", op.Caller)
		recipient := caller
		if op.Recipient != "" {
			recipient = p.address("recipient", op.Recipient)
		}
		in := p.amount("amount", op.Amount)
		minOut := p.amount("min_out", op.MinOut)
		if p.err != nil {
			return p.err
		}
		out, err := pool.SwapBaseForToken(caller, in, minOut, recipient, deadline)
		if err != nil {
			return err
		}
		rec.Output = out.String()

	case model.OpSwapTokenForBase:
		caller := p.address("caller", op.Caller)
		in := p.amount("amount", op.Amount)
		minOut := p.amount("min_out", op.MinOut)
		if p.err != nil {
			return p.err
		}
		out, err := pool.SwapTokenForBase(caller, in, minOut, deadline)
		if err != nil {
			return err
		}
		rec.Output = out.String()

	case model.OpSwapTokenToToken:
		caller := p.address("caller", op.Caller)
		other := p.address("other_token", op.OtherToken)
		in := p.amount("amount", op.Amount)
		minOut := p.amount("min_out", op.MinOut)
		if p.err != nil {
			return p.err
		}
		out, err := pool.SwapTokenForToken(caller, in, minOut, other, deadline)
		if err != nil {
			return err
		}
		rec.Output = out.String()

	case model.OpQuoteTokenOutput, model.OpQuoteBaseOutput:
		in := p.amount("amount", op.Amount)
		if p.err != nil {
			return p.err
		}
		quote := pool.QuoteTokenOutput
		if op.Op == model.OpQuoteBaseOutput {
			quote = pool.QuoteBaseOutput
		}
		out, err := quote(in)
		if err != nil {
			return err
		}
		rec.Output = out.String()

	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidOperation, op.Op)
	}
	return nil
}

func (r *Runner) pool(p *parser, token string) (*exchange.Exchange, error) {
	addr := p.address("token", token)
	if p.err != nil {
		return nil, p.err
	}
	pool, ok := r.registry.GetPool(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", exchange.ErrNoSuchPool, addr.Hex())
	}
	return pool, nil
}

// ensureToken returns the asset for address, registering it with resolved
// metadata the first time it is seen.
func (r *Runner) ensureToken(ctx context.Context, address common.Address) (*asset.Token, error) {
	if token, ok := r.book.Token(address); ok {
		return token, nil
	}
	meta := model.TokenMeta{Address: address.Hex(), Decimals: 18}
	if r.meta != nil {
		meta = r.meta.Resolve(ctx, address)
	}
	token := asset.NewToken(address, meta.Symbol, meta.Decimals)
	if err := r.book.Register(token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}
	r.logger.Debug("token registered",
		zap.String("token", address.Hex()),
		zap.String("symbol", meta.Symbol),
		zap.Uint8("decimals", meta.Decimals),
	)
	return token, nil
}

func describe(rec *model.Receipt, pool *exchange.Exchange) {
	st := pool.State()
	rec.Pool = st.Address.Hex()
	rec.Reserves = &model.PoolReserves{
		Base:        st.Reserves.Base.String(),
		Token:       st.Reserves.Token.String(),
		TotalShares: st.Reserves.TotalShares.String(),
	}
}

// parser decodes operation fields, keeping the first error.
type parser struct {
	err error
}

func (p *parser) address(field, value string) common.Address {
	if p.err != nil {
		return common.Address{}
	}
	if !common.IsHexAddress(value) {
		p.err = fmt.Errorf("%w: %s %q is not an address", ErrInvalidOperation, field, value)
		return common.Address{}
	}
	return common.HexToAddress(value)
}

// optionalToken is address with an empty value meaning fallback.
func (p *parser) optionalToken(value string, fallback common.Address) common.Address {
	if value == "" {
		return fallback
	}
	return p.address("token", value)
}

func (p *parser) amount(field, value string) *big.Int {
	if p.err != nil {
		return nil
	}
	out, err := units.Parse(value)
	if err != nil {
		p.err = fmt.Errorf("%w: %s: %v", ErrInvalidOperation, field, err)
		return nil
	}
	return out
}

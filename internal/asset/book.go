package asset

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Book groups the base currency and the traded tokens by address.
type Book struct {
	base *Token

	mu     sync.RWMutex
	tokens map[common.Address]*Token
}

func NewBook(base *Token) *Book {
	return &Book{
		base:   base,
		tokens: make(map[common.Address]*Token),
	}
}

func (b *Book) Base() *Token { return b.base }

// Register adds token to the book. Registering an address twice, or the base
// currency's address, is an error.
func (b *Book) Register(token *Token) error {
	if token.Address() == (common.Address{}) {
		return fmt.Errorf("register token: %w", ErrZeroAddress)
	}
	if token.Address() == b.base.Address() {
		return fmt.Errorf("token %s is the base currency", token.Address().Hex())
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tokens[token.Address()]; ok {
		return fmt.Errorf("token %s already registered", token.Address().Hex())
	}
	b.tokens[token.Address()] = token
	return nil
}

// Token looks up a registered token, or the base currency by its address.
func (b *Book) Token(address common.Address) (*Token, bool) {
	if address == b.base.Address() {
		return b.base, true
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	token, ok := b.tokens[address]
	return token, ok
}

// Tokens returns the registered tokens sorted by address, base excluded.
func (b *Book) Tokens() []*Token {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Token, 0, len(b.tokens))
	for _, token := range b.tokens {
		out = append(out, token)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address().Cmp(out[j].Address()) < 0
	})
	return out
}

package tokenmeta

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"ammSwap/internal/model"
)

// Cache caches token metadata by address.
type Cache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewCache() *Cache {
	return &Cache{data: make(map[common.Address]model.TokenMeta)}
}

func (c *Cache) Get(address common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *Cache) Set(address common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

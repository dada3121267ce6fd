package cache

import (
	"strings"
	"sync"
	"time"
)

// TTL é um cache em memória com expiração fixa por entrada. Valores são
// []byte (normalmente JSON já serializado, pronto para escrever na resposta).
type TTL struct {
	mu   sync.RWMutex
	data map[string]entry
	ttl  time.Duration
}

type entry struct {
	val []byte
	exp time.Time
}

func New(ttl time.Duration) *TTL {
	c := &TTL{data: make(map[string]entry), ttl: ttl}
	go c.sweep()
	return c
}

func (c *TTL) sweep() {
	interval := c.ttl
	if interval < time.Second {
		interval = time.Second
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for range tick.C {
		now := time.Now()
		c.mu.Lock()
		for k, e := range c.data {
			if e.exp.Before(now) {
				delete(c.data, k)
			}
		}
		c.mu.Unlock()
	}
}

// Get devolve o valor se presente e não expirado; nil caso contrário.
func (c *TTL) Get(key string) []byte {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()
	if !ok || e.exp.Before(time.Now()) {
		return nil
	}
	return e.val
}

func (c *TTL) Set(key string, val []byte) {
	c.mu.Lock()
	c.data[key] = entry{val: val, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTL) Delete(key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}

// DeletePrefix remove todas as chaves com o prefixo dado (ex.: "packages:"
// invalida as listas de pacotes de todos os usuários).
func (c *TTL) DeletePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	c.mu.Unlock()
}

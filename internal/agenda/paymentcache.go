package agenda

import (
	"sync"

	"github.com/google/uuid"
)

// PaymentCache guarda, por sessão, a lista de pagamentos já buscada. Não é
// autoritativo: sempre pode ser reconstruído refazendo a consulta. A entrada
// de uma sessão é sempre substituída inteira (Replace) ou descartada (Purge),
// nunca mesclada campo a campo.
type PaymentCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]Payment
}

func NewPaymentCache() *PaymentCache {
	return &PaymentCache{entries: make(map[uuid.UUID][]Payment)}
}

// Get devolve uma cópia da entrada da sessão, se presente.
func (c *PaymentCache) Get(sessionID uuid.UUID) ([]Payment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list, ok := c.entries[sessionID]
	if !ok {
		return nil, false
	}
	out := make([]Payment, len(list))
	copy(out, list)
	return out, true
}

// Replace substitui a entrada inteira da sessão pelo resultado de uma busca.
func (c *PaymentCache) Replace(sessionID uuid.UUID, payments []Payment) {
	list := make([]Payment, len(payments))
	copy(list, payments)
	c.mu.Lock()
	c.entries[sessionID] = list
	c.mu.Unlock()
}

// Add acrescenta um pagamento recém-criado à entrada da sessão. Se a sessão
// ainda não foi vista (sem entrada), não faz nada: o cache continua lazy e a
// primeira leitura busca tudo do banco.
func (c *PaymentCache) Add(sessionID uuid.UUID, p Payment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.entries[sessionID]
	if !ok {
		return
	}
	c.entries[sessionID] = append(list, p)
}

// Update substitui, na entrada da sessão, o pagamento de mesmo id.
func (c *PaymentCache) Update(sessionID uuid.UUID, p Payment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.entries[sessionID]
	if !ok {
		return
	}
	for i := range list {
		if list[i].ID == p.ID {
			list[i] = p
			return
		}
	}
}

// Remove tira um pagamento da entrada da sessão.
func (c *PaymentCache) Remove(sessionID, paymentID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.entries[sessionID]
	if !ok {
		return
	}
	for i := range list {
		if list[i].ID == paymentID {
			c.entries[sessionID] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Purge descarta a entrada da sessão (ao deletar a sessão).
func (c *PaymentCache) Purge(sessionID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, sessionID)
	c.mu.Unlock()
}

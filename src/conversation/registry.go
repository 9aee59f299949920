package conversation

import (
	"sync"
	"time"

	"github.com/thaiminh0911/telefilm-bot/src/entities"
)

// PaymentRegistry remembers payments handed to users until they are
// confirmed or expire. It is shared by the update loop and the return-URL
// server.
type PaymentRegistry struct {
	mu         sync.Mutex
	ttl        time.Duration
	now        func() time.Time
	byID       map[string]entities.IssuedPayment
	lastByChat map[int64]string
}

func NewPaymentRegistry(ttl time.Duration) *PaymentRegistry {
	return &PaymentRegistry{
		ttl:        ttl,
		now:        time.Now,
		byID:       make(map[string]entities.IssuedPayment),
		lastByChat: make(map[int64]string),
	}
}

func (r *PaymentRegistry) Add(p entities.IssuedPayment) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now()
	}
	r.pruneLocked()
	r.byID[p.PaymentID] = p
	r.lastByChat[p.ChatID] = p.PaymentID
}

// Take removes and returns the payment so only one caller confirms it.
func (r *PaymentRegistry) Take(paymentID string) (entities.IssuedPayment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[paymentID]
	if !ok {
		return entities.IssuedPayment{}, false
	}
	delete(r.byID, paymentID)
	if r.lastByChat[p.ChatID] == paymentID {
		delete(r.lastByChat, p.ChatID)
	}
	return p, true
}

// Restore puts back a payment whose confirmation could not be completed.
func (r *PaymentRegistry) Restore(p entities.IssuedPayment) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[p.PaymentID] = p
	if _, ok := r.lastByChat[p.ChatID]; !ok {
		r.lastByChat[p.ChatID] = p.PaymentID
	}
}

// Latest is the most recent unconfirmed payment of the chat.
func (r *PaymentRegistry) Latest(chatID int64) (entities.IssuedPayment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()
	id, ok := r.lastByChat[chatID]
	if !ok {
		return entities.IssuedPayment{}, false
	}
	p, ok := r.byID[id]
	return p, ok
}

func (r *PaymentRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *PaymentRegistry) pruneLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	for id, p := range r.byID {
		if p.CreatedAt.Before(cutoff) {
			delete(r.byID, id)
			if r.lastByChat[p.ChatID] == id {
				delete(r.lastByChat, p.ChatID)
			}
		}
	}
}

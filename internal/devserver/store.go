package devserver

import (
	"slices"
	"sync"
	"time"

	"github.com/yndnr/minipay-go/internal/core/domain"
)

// Store keeps transactions in memory.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	items  []domain.Transaction
	now    func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{nextID: 1, now: time.Now}
}

// Create assigns an ID and a transaction date and stores the transaction.
// The security code is never kept.
func (s *Store) Create(req domain.TransactionRequest) domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := domain.Transaction{
		ID:              s.nextID,
		Currency:        domain.DefaultCurrency,
		Amount:          req.Amount,
		Description:     req.Description,
		Name:            req.Name,
		DocumentType:    req.DocumentType,
		DocumentNumber:  req.DocumentNumber,
		CardNumber:      req.CardNumber,
		ExpirationDate:  req.ExpirationDate,
		TransactionDate: domain.Timestamp{Time: s.now().UTC()},
	}
	s.nextID++
	s.items = append(s.items, tx)
	return tx
}

// List returns all transactions, newest first.
func (s *Store) List() []domain.Transaction {
	s.mu.RLock()
	out := make([]domain.Transaction, len(s.items))
	copy(out, s.items)
	s.mu.RUnlock()
	slices.Reverse(out)
	return out
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

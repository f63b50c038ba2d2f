// Package memory is an in-process implementation of every repository port.
// Plan and receipt writes go through a per-deal mutex and are buffered until
// the unit of work returns nil, so a failed operation leaves nothing behind.
package memory

import (
	"sync"
	"time"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger_core/internal/utils/refcode"
)

// Store keeps ledger state in maps guarded by mu. Values are copied on the
// way in and out so callers never share slices with the store.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]domain.Account
	accountCodes map[string]string

	entries map[string]domain.JournalEntry

	deals        map[string]domain.Deal
	plans        map[string]domain.PaymentPlan
	activePlanBy map[string]string // dealID -> planID
	receipts     map[string]domain.Receipt

	counters map[string]int64 // prefix|day -> last sequence

	locksMu   sync.Mutex
	dealLocks map[string]*sync.Mutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]domain.Account),
		accountCodes: make(map[string]string),
		entries:      make(map[string]domain.JournalEntry),
		deals:        make(map[string]domain.Deal),
		plans:        make(map[string]domain.PaymentPlan),
		activePlanBy: make(map[string]string),
		receipts:     make(map[string]domain.Receipt),
		counters:     make(map[string]int64),
		dealLocks:    make(map[string]*sync.Mutex),
	}
}

// Repositories exposes the store through the repository ports.
func (s *Store) Repositories() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:     s,
		JournalRepo:     s,
		PaymentPlanRepo: s,
	}
}

var (
	_ portsrepo.AccountRepositoryFacade     = (*Store)(nil)
	_ portsrepo.JournalRepositoryFacade     = (*Store)(nil)
	_ portsrepo.PaymentPlanRepositoryFacade = (*Store)(nil)
)

// nextReference hands out the next code for prefix on day. Callers hold mu.
func (s *Store) nextReference(prefix string, day time.Time) string {
	key := prefix + "|" + refcode.DayKey(day)
	s.counters[key]++
	return refcode.Format(prefix, day, s.counters[key])
}

func (s *Store) dealLock(dealID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.dealLocks[dealID]
	if !ok {
		lock = &sync.Mutex{}
		s.dealLocks[dealID] = lock
	}
	return lock
}

func copyEntry(e domain.JournalEntry) domain.JournalEntry {
	e.Lines = append([]domain.JournalLine(nil), e.Lines...)
	if e.OriginalEntryID != nil {
		id := *e.OriginalEntryID
		e.OriginalEntryID = &id
	}
	if e.ReversingEntryID != nil {
		id := *e.ReversingEntryID
		e.ReversingEntryID = &id
	}
	return e
}

func copyPlan(p domain.PaymentPlan) domain.PaymentPlan {
	p.Installments = append([]domain.Installment(nil), p.Installments...)
	return p
}

func copyReceipt(r domain.Receipt) domain.Receipt {
	r.Allocations = append([]domain.Allocation(nil), r.Allocations...)
	if r.JournalEntryID != nil {
		id := *r.JournalEntryID
		r.JournalEntryID = &id
	}
	return r
}

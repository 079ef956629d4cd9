package testutil

import (
	"context"
	"sync"

	"github.com/projectledger/projectledger/internal/domain/ledger"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/shopspring/decimal"
)

// PostedEntry is a journal entry as recorded by InMemoryLedger
type PostedEntry struct {
	ID       string
	Sequence int
	TenantID string
	ledger.Entry
}

// InMemoryLedger implements ledger.Gateway. It honors idempotency keys the way the journal
// table's unique index does and can be told to fail the next posting.
type InMemoryLedger struct {
	*InMemoryStore[*PostedEntry]

	mu       sync.Mutex
	sequence int
	failNext error
	failWhen func(*ledger.Entry) error
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		InMemoryStore: NewInMemoryStore[*PostedEntry](),
	}
}

func copyEntry(e ledger.Entry) ledger.Entry {
	c := e
	c.Lines = make([]ledger.Line, len(e.Lines))
	copy(c.Lines, e.Lines)
	return c
}

// FailNext makes the next Post return err without recording anything
func (l *InMemoryLedger) FailNext(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failNext = err
}

// FailWhen makes every Post for which fn returns an error fail with that error
func (l *InMemoryLedger) FailWhen(fn func(*ledger.Entry) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failWhen = fn
}

func (l *InMemoryLedger) Post(ctx context.Context, entry *ledger.Entry) (string, error) {
	if err := entry.Validate(); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failNext != nil {
		err := l.failNext
		l.failNext = nil
		return "", err
	}
	if l.failWhen != nil {
		if err := l.failWhen(entry); err != nil {
			return "", err
		}
	}

	tenantID := types.GetTenantID(ctx)
	if entry.IdempotencyKey != "" {
		existing := l.InMemoryStore.List(ctx, func(p *PostedEntry) bool {
			return p.TenantID == tenantID && p.IdempotencyKey == entry.IdempotencyKey
		}, nil)
		if len(existing) > 0 {
			return existing[0].ID, nil
		}
	}

	l.sequence++
	posted := &PostedEntry{
		ID:       types.GenerateUUIDWithPrefix(types.UUID_PREFIX_JOURNAL_ENTRY),
		Sequence: l.sequence,
		TenantID: tenantID,
		Entry:    copyEntry(*entry),
	}
	if err := l.InMemoryStore.Create(ctx, posted.ID, posted); err != nil {
		return "", err
	}
	return posted.ID, nil
}

// Entries returns the recorded entries in posting order
func (l *InMemoryLedger) Entries(ctx context.Context) []*PostedEntry {
	return l.InMemoryStore.List(ctx, nil, func(a, b *PostedEntry) bool {
		return a.Sequence < b.Sequence
	})
}

// EntriesFor returns the recorded entries of one reference in posting order
func (l *InMemoryLedger) EntriesFor(ctx context.Context, refType ledger.ReferenceType, refID string) []*PostedEntry {
	return l.InMemoryStore.List(ctx, func(p *PostedEntry) bool {
		return p.ReferenceType == refType && p.ReferenceID == refID
	}, func(a, b *PostedEntry) bool {
		return a.Sequence < b.Sequence
	})
}

// Balance returns debits minus credits posted to an account
func (l *InMemoryLedger) Balance(ctx context.Context, accountCode string) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range l.Entries(ctx) {
		for _, line := range e.Lines {
			if line.AccountCode == accountCode {
				balance = balance.Add(line.Debit).Sub(line.Credit)
			}
		}
	}
	return balance
}

package service

import (
	"context"
	"unicode"
	"unicode/utf8"

	"issuebridge/internal/core/issuekeys"
	"issuebridge/internal/platform/keylock"
	"issuebridge/internal/platform/store/kv"
	"issuebridge/internal/services/tracking/domain"
)

// ProcessedStore is the idempotency ledger of one tracker in one repository
// One record per normalized issue key holds every mark of that key
type ProcessedStore struct {
	recs  kv.Store[domain.Marks]
	locks *keylock.Locker
}

// LedgerNamespace is the kv namespace of tracker's marks in repositoryID
func LedgerNamespace(tracker, repositoryID string) kv.Namespace {
	return kv.Namespace{Name: "issueTracker" + capitalize(tracker), Repository: repositoryID}
}

// NewProcessedStore returns the ledger of tracker in repositoryID
func NewProcessedStore(b kv.Backend, locks *keylock.Locker, tracker, repositoryID string) *ProcessedStore {
	if locks == nil {
		locks = keylock.New()
	}
	return &ProcessedStore{
		recs:  kv.New[domain.Marks](b, LedgerNamespace(tracker, repositoryID)),
		locks: locks,
	}
}

func (s *ProcessedStore) lock(key string) (string, func()) {
	id := issuekeys.NormalizeKey(key)
	return id, s.locks.Lock("ledger|" + s.recs.Namespace().String() + "|" + id)
}

func (s *ProcessedStore) has(ctx context.Context, key string, m domain.Mark) (bool, error) {
	id, unlock := s.lock(key)
	defer unlock()
	rec, _, err := s.recs.GetOptional(ctx, id)
	if err != nil {
		return false, err
	}
	return rec.Has(m), nil
}

func (s *ProcessedStore) add(ctx context.Context, key string, m domain.Mark) error {
	id, unlock := s.lock(key)
	defer unlock()
	rec, _, err := s.recs.GetOptional(ctx, id)
	if err != nil {
		return err
	}
	if rec.Has(m) {
		return nil
	}
	rec.Marks = append(rec.Marks, m)
	return s.recs.Put(ctx, id, rec)
}

// IsProcessed reports whether obj was already commented on key
func (s *ProcessedStore) IsProcessed(ctx context.Context, key string, obj domain.ReferencingObject) (bool, error) {
	return s.has(ctx, key, domain.MarkOf(obj))
}

// Mark records that obj was commented on key
func (s *ProcessedStore) Mark(ctx context.Context, key string, obj domain.ReferencingObject) error {
	return s.add(ctx, key, domain.MarkOf(obj))
}

// IsProcessedFor reports whether keyword already triggered a transition of key for obj
func (s *ProcessedStore) IsProcessedFor(ctx context.Context, key string, obj domain.ReferencingObject, keyword string) (bool, error) {
	m := domain.MarkOf(obj)
	m.Keyword = keyword
	return s.has(ctx, key, m)
}

// MarkFor records that keyword triggered a transition of key for obj
func (s *ProcessedStore) MarkFor(ctx context.Context, key string, obj domain.ReferencingObject, keyword string) error {
	m := domain.MarkOf(obj)
	m.Keyword = keyword
	return s.add(ctx, key, m)
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

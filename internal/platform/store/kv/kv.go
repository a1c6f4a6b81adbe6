// Package kv is the record persistence used by the tracking ledger and the resubmit queue
//
// Records are JSON documents addressed by (namespace, repository, key). A namespace with an
// empty Repository is global.
package kv

import (
	"context"
	"encoding/json"

	perr "issuebridge/internal/platform/errors"
)

// Namespace scopes a set of records
type Namespace struct {
	Name       string
	Repository string
}

func (n Namespace) String() string {
	if n.Repository == "" {
		return n.Name
	}
	return n.Name + "@" + n.Repository
}

// Backend stores raw JSON records
type Backend interface {
	Get(ctx context.Context, ns Namespace, key string) ([]byte, bool, error)
	Put(ctx context.Context, ns Namespace, key string, value []byte) error
	Remove(ctx context.Context, ns Namespace, key string) error
	All(ctx context.Context, ns Namespace) (map[string][]byte, error)

	// DropRepository removes every record of every namespace scoped to repositoryID
	DropRepository(ctx context.Context, repositoryID string) error
}

// Store is a typed view of one namespace
type Store[T any] struct {
	b  Backend
	ns Namespace
}

// New returns a typed store over b
func New[T any](b Backend, ns Namespace) Store[T] { return Store[T]{b: b, ns: ns} }

// Namespace returns the namespace this store addresses
func (s Store[T]) Namespace() Namespace { return s.ns }

// Get returns the record or a not found error
func (s Store[T]) Get(ctx context.Context, key string) (T, error) {
	v, ok, err := s.GetOptional(ctx, key)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, perr.NotFoundf("%s: no record %q", s.ns, key)
	}
	return v, nil
}

// GetOptional returns the record and whether it exists
func (s Store[T]) GetOptional(ctx context.Context, key string) (T, bool, error) {
	var v T
	raw, ok, err := s.b.Get(ctx, s.ns, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, perr.Wrapf(err, perr.ErrorCodeJSON, "%s: decode %q", s.ns, key)
	}
	return v, true, nil
}

// Put writes the record, replacing any previous value
func (s Store[T]) Put(ctx context.Context, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "%s: encode %q", s.ns, key)
	}
	return s.b.Put(ctx, s.ns, key, raw)
}

// Remove deletes the record; removing an absent key is not an error
func (s Store[T]) Remove(ctx context.Context, key string) error {
	return s.b.Remove(ctx, s.ns, key)
}

// GetAll decodes every record in the namespace
func (s Store[T]) GetAll(ctx context.Context) (map[string]T, error) {
	raws, err := s.b.All(ctx, s.ns)
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(raws))
	for k, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "%s: decode %q", s.ns, k)
		}
		out[k] = v
	}
	return out, nil
}

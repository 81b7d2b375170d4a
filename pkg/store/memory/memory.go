// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory is an in-process vector store transport. It performs exact
// cosine search and is meant for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jllopis/kairos-weaviate/pkg/store"
	"github.com/jllopis/kairos-weaviate/pkg/store/vecmath"
)

// Predicate is the native filter type of this transport.
type Predicate func(store.Object) bool

// Store is the shared backing state. Several transports dialled from the same
// Store see the same collections.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection

	dials   atomic.Int64
	creates atomic.Int64
	inserts atomic.Int64

	// DialErr, when set, makes Dial fail.
	DialErr error
	// DialHook runs inside Dial before it returns; tests use it to hold the
	// dial open.
	DialHook func(ctx context.Context) error
	// Fail maps an operation name (create, insert, search, delete, count,
	// get, drop, exists) to an injected error.
	Fail map[string]error
}

type collection struct {
	info    store.CollectionInfo
	size    int
	objects []store.Object
	index   map[string]int
}

// New returns an empty store.
func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// Dialer returns a store.Dialer backed by s.
func (s *Store) Dialer() store.Dialer {
	return func(ctx context.Context, _ store.ClientParams) (store.Transport, error) {
		s.dials.Add(1)
		if s.DialHook != nil {
			if err := s.DialHook(ctx); err != nil {
				return nil, err
			}
		}
		if s.DialErr != nil {
			return nil, s.DialErr
		}
		return &Transport{s: s}, nil
	}
}

// Dials returns how many times a Dialer from s was invoked.
func (s *Store) Dials() int64 { return s.dials.Load() }

// Creates returns how many collections were actually created.
func (s *Store) Creates() int64 { return s.creates.Load() }

// Inserts returns how many insert batches were written.
func (s *Store) Inserts() int64 { return s.inserts.Load() }

// Objects returns a copy of the objects stored in name, in insertion order.
func (s *Store) Objects(name string) []store.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	return append([]store.Object(nil), c.objects...)
}

func (s *Store) fail(op string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail[op]
}

// Transport implements store.Transport over a Store.
type Transport struct {
	s      *Store
	closed atomic.Bool
}

// Dial opens a transport over a fresh private store.
func Dial(ctx context.Context, params store.ClientParams) (store.Transport, error) {
	return New().Dialer()(ctx, params)
}

func (t *Transport) check(op string) error {
	if t.closed.Load() {
		return store.ErrClosed
	}
	return t.s.fail(op)
}

func (t *Transport) CollectionExists(_ context.Context, name string) (bool, error) {
	if err := t.check("exists"); err != nil {
		return false, err
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	_, ok := t.s.collections[name]
	return ok, nil
}

func (t *Transport) CreateCollection(_ context.Context, cfg store.CollectionConfig) error {
	if err := t.check("create"); err != nil {
		return err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.collections[cfg.Name]; ok {
		return fmt.Errorf("collection %q already exists", cfg.Name)
	}
	t.s.collections[cfg.Name] = &collection{
		info:  store.CollectionInfo{Name: cfg.Name, Description: cfg.Description},
		size:  cfg.VectorSize,
		index: make(map[string]int),
	}
	t.s.creates.Add(1)
	return nil
}

func (t *Transport) GetCollection(_ context.Context, name string) (store.CollectionInfo, error) {
	if err := t.check("get"); err != nil {
		return store.CollectionInfo{}, err
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	c, ok := t.s.collections[name]
	if !ok {
		return store.CollectionInfo{}, fmt.Errorf("collection %q not found", name)
	}
	return c.info, nil
}

func (t *Transport) DeleteCollection(_ context.Context, name string) error {
	if err := t.check("drop"); err != nil {
		return err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.collections[name]; !ok {
		return fmt.Errorf("collection %q not found", name)
	}
	delete(t.s.collections, name)
	return nil
}

func (t *Transport) InsertObjects(_ context.Context, name string, objects []store.Object) ([]string, error) {
	if err := t.check("insert"); err != nil {
		return nil, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	c, ok := t.s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q not found", name)
	}
	ids := make([]string, len(objects))
	for i, obj := range objects {
		if c.size > 0 && len(obj.Vector) != c.size {
			return nil, fmt.Errorf("object %d: vector has %d dimensions, collection expects %d", i, len(obj.Vector), c.size)
		}
		if obj.ID == "" {
			obj.ID = uuid.NewString()
		}
		obj.Vector = append([]float32(nil), obj.Vector...)
		if pos, exists := c.index[obj.ID]; exists {
			c.objects[pos] = obj
		} else {
			c.index[obj.ID] = len(c.objects)
			c.objects = append(c.objects, obj)
		}
		ids[i] = obj.ID
	}
	t.s.inserts.Add(1)
	return ids, nil
}

func (t *Transport) DeleteObject(_ context.Context, name, id string) error {
	if err := t.check("delete"); err != nil {
		return err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	c, ok := t.s.collections[name]
	if !ok {
		return fmt.Errorf("collection %q not found", name)
	}
	pos, ok := c.index[id]
	if !ok {
		return nil
	}
	c.objects = append(c.objects[:pos], c.objects[pos+1:]...)
	delete(c.index, id)
	for i := pos; i < len(c.objects); i++ {
		c.index[c.objects[i].ID] = i
	}
	return nil
}

func (t *Transport) Search(_ context.Context, name string, vector []float32, opts store.SearchOptions) ([]store.ScoredObject, error) {
	if err := t.check("search"); err != nil {
		return nil, err
	}
	match, err := predicateFor(opts.Filter)
	if err != nil {
		return nil, err
	}

	t.s.mu.RLock()
	c, ok := t.s.collections[name]
	if !ok {
		t.s.mu.RUnlock()
		return nil, fmt.Errorf("collection %q not found", name)
	}
	hits := make([]store.ScoredObject, 0, len(c.objects))
	for _, obj := range c.objects {
		if match != nil && !match(obj) {
			continue
		}
		d := vecmath.CosineDistance(vector, obj.Vector)
		if opts.Distance != nil && d > *opts.Distance {
			continue
		}
		hits = append(hits, store.ScoredObject{Object: obj, Distance: &d})
	}
	t.s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		return *hits[i].Distance < *hits[j].Distance
	})
	if opts.Limit > 0 && len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	return hits, nil
}

func (t *Transport) CountObjects(_ context.Context, name string) (int64, error) {
	if err := t.check("count"); err != nil {
		return 0, err
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	c, ok := t.s.collections[name]
	if !ok {
		return 0, fmt.Errorf("collection %q not found", name)
	}
	return int64(len(c.objects)), nil
}

func (t *Transport) Close() error {
	t.closed.Store(true)
	return nil
}

// predicateFor turns a filter into a Predicate. Raw filters are equality maps
// over content, contentType and top-level metadata keys.
func predicateFor(f *store.Filter) (Predicate, error) {
	if f.IsZero() {
		return nil, nil
	}
	if p, ok, err := store.NativeAs[Predicate](f); err != nil {
		return nil, err
	} else if ok {
		return p, nil
	}
	raw, _ := f.Raw()
	eq, err := vecmath.ParseEquality(raw)
	if err != nil {
		return nil, err
	}
	return func(obj store.Object) bool { return eq.Match(obj.Properties) }, nil
}

var _ store.Transport = (*Transport)(nil)

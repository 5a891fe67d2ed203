package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryStore keeps collections in process. Every operation holds the store
// lock for its whole duration, so single-document writes are atomic exactly
// like they are on MongoDB. Documents keep insertion order.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]bson.M
	indexes     map[string][]IndexSpec
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]bson.M),
		indexes:     make(map[string][]IndexSpec),
	}
}

func (s *MemoryStore) Collection(name string) Collection {
	return &memoryCollection{store: s, name: name}
}

func (s *MemoryStore) EnsureIndexes(_ context.Context, specs []IndexSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, spec := range specs {
		if !spec.Unique {
			continue
		}
		existing := s.indexes[spec.Collection]
		replaced := false
		for i, idx := range existing {
			if idx.Name == spec.Name {
				existing[i] = spec
				replaced = true
			}
		}
		if !replaced {
			s.indexes[spec.Collection] = append(existing, spec)
		}
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error  { return nil }
func (s *MemoryStore) Close(context.Context) error { return nil }

// source must be called with the lock held.
func (s *MemoryStore) source(name string) []bson.M {
	return s.collections[name]
}

// violatesUnique reports whether doc collides with another document (other
// than the one at skip) on a unique index.
func (s *MemoryStore) violatesUnique(coll string, doc bson.M, skip int) bool {
	docs := s.collections[coll]
	id := doc["_id"]
	for i, other := range docs {
		if i != skip && equalValues(other["_id"], id) {
			return true
		}
	}
	for _, idx := range s.indexes[coll] {
		for i, other := range docs {
			if i == skip {
				continue
			}
			same := true
			for _, key := range idx.Keys {
				a, _ := getPath(doc, key)
				b, _ := getPath(other, key)
				if !equalValues(a, b) {
					same = false
					break
				}
			}
			if same {
				return true
			}
		}
	}
	return false
}

type memoryCollection struct {
	store *MemoryStore
	name  string
}

func (c *memoryCollection) InsertOne(ctx context.Context, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d, err := toDocument(doc)
	if err != nil {
		return err
	}
	if id, ok := d["_id"]; !ok || id == nil || id == bson.NilObjectID {
		d["_id"] = bson.NewObjectID()
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.store.violatesUnique(c.name, d, -1) {
		return fmt.Errorf("insert into %s: %w", c.name, ErrDuplicateKey)
	}
	c.store.collections[c.name] = append(c.store.collections[c.name], d)
	return nil
}

// firstMatch returns the index of the first matching document or -1. Callers
// hold the lock.
func (c *memoryCollection) firstMatch(filter Cond) int {
	for i, d := range c.store.collections[c.name] {
		if matches(d, filter) {
			return i
		}
	}
	return -1
}

func (c *memoryCollection) FindOne(ctx context.Context, filter Cond, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.store.mu.RLock()
	i := c.firstMatch(filter)
	var doc bson.M
	if i >= 0 {
		doc = cloneDoc(c.store.collections[c.name][i])
	}
	c.store.mu.RUnlock()

	if doc == nil {
		return ErrNotFound
	}
	return decodeInto(doc, out)
}

func (c *memoryCollection) Find(ctx context.Context, filter Cond, opts FindOptions, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := Pipeline{Match{Cond: filter}}
	if len(opts.Sort) > 0 {
		p = append(p, Sort{Keys: opts.Sort})
	}
	if opts.Skip > 0 {
		p = append(p, Skip{N: opts.Skip})
	}
	if opts.Limit > 0 {
		p = append(p, Limit{N: opts.Limit})
	}
	docs, err := c.Aggregate(ctx, p)
	if err != nil {
		return err
	}
	return decodeSlice(docs, out)
}

func (c *memoryCollection) FindOneAndUpdate(ctx context.Context, filter Cond, update Update, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.store.mu.Lock()
	i := c.firstMatch(filter)
	if i < 0 {
		c.store.mu.Unlock()
		return ErrNotFound
	}
	updated, err := c.updateAt(i, update)
	c.store.mu.Unlock()
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeInto(updated, out)
}

// updateAt applies update to the document at index i and returns a copy of
// the result. Callers hold the write lock.
func (c *memoryCollection) updateAt(i int, update Update) (bson.M, error) {
	docs := c.store.collections[c.name]
	next := cloneDoc(docs[i])
	if err := applyUpdate(next, update); err != nil {
		return nil, err
	}
	if c.store.violatesUnique(c.name, next, i) {
		return nil, fmt.Errorf("update %s: %w", c.name, ErrDuplicateKey)
	}
	docs[i] = next
	return cloneDoc(next), nil
}

func (c *memoryCollection) FindOneAndDelete(ctx context.Context, filter Cond, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.store.mu.Lock()
	i := c.firstMatch(filter)
	if i < 0 {
		c.store.mu.Unlock()
		return ErrNotFound
	}
	docs := c.store.collections[c.name]
	removed := docs[i]
	c.store.collections[c.name] = append(docs[:i:i], docs[i+1:]...)
	c.store.mu.Unlock()

	if out == nil {
		return nil
	}
	return decodeInto(removed, out)
}

func (c *memoryCollection) UpdateOne(ctx context.Context, filter Cond, update Update) (UpdateResult, error) {
	return c.update(ctx, filter, update, false)
}

func (c *memoryCollection) UpdateMany(ctx context.Context, filter Cond, update Update) (UpdateResult, error) {
	return c.update(ctx, filter, update, true)
}

func (c *memoryCollection) update(ctx context.Context, filter Cond, update Update, many bool) (UpdateResult, error) {
	var res UpdateResult
	if err := ctx.Err(); err != nil {
		return res, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	for i, d := range c.store.collections[c.name] {
		if !matches(d, filter) {
			continue
		}
		res.Matched++
		before := d
		after, err := c.updateAt(i, update)
		if err != nil {
			return res, err
		}
		if !reflect.DeepEqual(before, after) {
			res.Modified++
		}
		if !many {
			break
		}
	}
	return res, nil
}

func (c *memoryCollection) DeleteOne(ctx context.Context, filter Cond) (int64, error) {
	return c.delete(ctx, filter, false)
}

func (c *memoryCollection) DeleteMany(ctx context.Context, filter Cond) (int64, error) {
	return c.delete(ctx, filter, true)
}

func (c *memoryCollection) delete(ctx context.Context, filter Cond, many bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	docs := c.store.collections[c.name]
	kept := make([]bson.M, 0, len(docs))
	var deleted int64
	for _, d := range docs {
		if (many || deleted == 0) && matches(d, filter) {
			deleted++
			continue
		}
		kept = append(kept, d)
	}
	c.store.collections[c.name] = kept
	return deleted, nil
}

func (c *memoryCollection) CountDocuments(ctx context.Context, filter Cond) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	var n int64
	for _, d := range c.store.collections[c.name] {
		if matches(d, filter) {
			n++
		}
	}
	return n, nil
}

func (c *memoryCollection) Aggregate(ctx context.Context, p Pipeline) ([]bson.M, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	root := c.store.collections[c.name]
	docs := make([]bson.M, len(root))
	for i, d := range root {
		docs[i] = cloneDoc(d)
	}
	out, err := runPipeline(docs, p, c.store.source)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []bson.M{}
	}
	return out, nil
}

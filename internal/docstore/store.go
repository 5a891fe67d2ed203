// Package docstore is the entity store: typed filter, update and aggregation
// pipeline descriptors plus the adapters that execute them (MongoDB and an
// in-memory engine with the same semantics).
package docstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	// ErrNotFound is returned by single-document operations that match nothing.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("docstore: duplicate key")
)

// Collection is one named set of documents.
//
// out arguments follow the decoding rules of the bson package: a pointer to a
// struct (or bson.M) for single documents, a pointer to a slice for Find.
type Collection interface {
	InsertOne(ctx context.Context, doc any) error
	FindOne(ctx context.Context, filter Cond, out any) error
	Find(ctx context.Context, filter Cond, opts FindOptions, out any) error
	// FindOneAndUpdate applies update to the first match and decodes the
	// document as it is after the update.
	FindOneAndUpdate(ctx context.Context, filter Cond, update Update, out any) error
	// FindOneAndDelete removes the first match; out may be nil.
	FindOneAndDelete(ctx context.Context, filter Cond, out any) error
	UpdateOne(ctx context.Context, filter Cond, update Update) (UpdateResult, error)
	UpdateMany(ctx context.Context, filter Cond, update Update) (UpdateResult, error)
	DeleteOne(ctx context.Context, filter Cond) (int64, error)
	DeleteMany(ctx context.Context, filter Cond) (int64, error)
	CountDocuments(ctx context.Context, filter Cond) (int64, error)
	Aggregate(ctx context.Context, p Pipeline) ([]bson.M, error)
}

// Store hands out collections and owns the underlying connection.
type Store interface {
	Collection(name string) Collection
	EnsureIndexes(ctx context.Context, specs []IndexSpec) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Decode converts one aggregation result into T.
func Decode[T any](doc bson.M) (T, error) {
	var out T
	if err := decodeInto(doc, &out); err != nil {
		return out, err
	}
	return out, nil
}

// DecodeAll converts aggregation results into a slice of T. The result is
// never nil so it serializes as an empty list.
func DecodeAll[T any](docs []bson.M) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := Decode[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeInto(doc bson.M, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: marshal document: %w", err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("docstore: decode document: %w", err)
	}
	return nil
}

// decodeSlice fills out (a pointer to a slice) from docs.
func decodeSlice(docs []bson.M, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("docstore: Find needs a pointer to a slice, got %T", out)
	}
	slice := rv.Elem()
	elemType := slice.Type().Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(docs))
	for _, d := range docs {
		elem := reflect.New(elemType)
		if err := decodeInto(d, elem.Interface()); err != nil {
			return err
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Set(result)
	return nil
}

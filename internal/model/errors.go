package model

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Kind classifies domain errors; handlers map each kind to one HTTP status.
type Kind int

const (
	// KindPersistence covers every unexpected failure (500).
	KindPersistence Kind = iota
	KindInvalidArgument
	KindNotFound
	KindConflict
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindUnauthorized:
		return "Unauthorized"
	default:
		return "PersistenceError"
	}
}

// Error is a classified domain error. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// KindOf returns the kind of the first *Error in err's chain, or
// KindPersistence for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// Invalid builds an ad-hoc InvalidArgument error.
func Invalid(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Common domain errors
var (
	ErrInvalidID       = &Error{Kind: KindInvalidArgument, Message: "Invalid id"}
	ErrNotOwner        = &Error{Kind: KindUnauthorized, Message: "You are not allowed to modify this resource"}
	ErrUnauthenticated = &Error{Kind: KindUnauthorized, Message: "Unauthorized request"}
)

// ParseID parses a 24-character hex object id.
func ParseID(s string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return bson.NilObjectID, ErrInvalidID
	}
	return id, nil
}

// RequireIDs rejects zero ids before any store access.
func RequireIDs(ids ...bson.ObjectID) error {
	for _, id := range ids {
		if id.IsZero() {
			return ErrInvalidID
		}
	}
	return nil
}

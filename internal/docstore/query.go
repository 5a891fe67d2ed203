package docstore

import (
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type condOp int

const (
	opAll condOp = iota
	opEq
	opNe
	opIn
	opExists
	opContains
	opAnd
	opOr
)

// Cond is a filter over the documents of one collection. Build it with Eq, In,
// Or and friends; the zero value matches every document.
type Cond struct {
	op       condOp
	field    string
	value    any
	values   []any
	children []Cond
	re       *regexp.Regexp
}

// All matches every document.
func All() Cond { return Cond{op: opAll} }

// Eq matches documents whose field equals value. When the field holds an
// array, any element equal to value is a match.
func Eq(field string, value any) Cond {
	return Cond{op: opEq, field: field, value: value}
}

// Ne is the negation of Eq: for array fields no element may equal value.
func Ne(field string, value any) Cond {
	return Cond{op: opNe, field: field, value: value}
}

// In matches documents whose field equals any of values.
func In(field string, values ...any) Cond {
	return Cond{op: opIn, field: field, values: values}
}

// Exists matches documents where the field is present (exists=true) or absent.
func Exists(field string, exists bool) Cond {
	return Cond{op: opExists, field: field, value: exists}
}

// Contains matches string fields holding substr, ignoring case. substr is
// matched literally.
func Contains(field, substr string) Cond {
	return Cond{
		op:    opContains,
		field: field,
		value: substr,
		re:    regexp.MustCompile("(?i)" + regexp.QuoteMeta(substr)),
	}
}

// And matches documents satisfying every cond.
func And(conds ...Cond) Cond {
	return Cond{op: opAnd, children: conds}
}

// Or matches documents satisfying at least one cond.
func Or(conds ...Cond) Cond {
	return Cond{op: opOr, children: conds}
}

// IDs converts typed ids for use with In.
func IDs(ids []bson.ObjectID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// SortKey orders by one field.
type SortKey struct {
	Field string
	Desc  bool
}

func Asc(field string) SortKey  { return SortKey{Field: field} }
func Desc(field string) SortKey { return SortKey{Field: field, Desc: true} }

// FindOptions shapes a plain Find.
type FindOptions struct {
	Sort  []SortKey
	Skip  int64
	Limit int64
}

// Update describes a single-document or multi-document mutation.
//
// SetExpr assignments are evaluated against the document as it was before
// the update and cannot be combined with Unset, Inc or the array operators.
type Update struct {
	Set      map[string]any
	Unset    []string
	Inc      map[string]any
	Push     map[string]any
	Pull     map[string]any
	AddToSet map[string]any
	SetExpr  []Assign
}

func (u Update) usesOperators() bool {
	return len(u.Unset) > 0 || len(u.Inc) > 0 || len(u.Push) > 0 || len(u.Pull) > 0 || len(u.AddToSet) > 0
}

// PushEach appends several values in one $push. A positive KeepLast trims the
// array to its last KeepLast elements in the same write.
type PushEach struct {
	Values   []any
	KeepLast int
}

// UpdateResult reports how many documents an update touched.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// IndexSpec declares a secondary index. Keys are ascending.
type IndexSpec struct {
	Collection string
	Name       string
	Keys       []string
	Unique     bool
}

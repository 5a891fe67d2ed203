package docstore

// Pipeline is an ordered list of aggregation stages. Pipelines are plain
// values: building one never touches the database.
type Pipeline []Stage

// Append returns a new pipeline with stages added after p. p is left untouched
// so a base pipeline can be shared between a page query and its count query.
func (p Pipeline) Append(stages ...Stage) Pipeline {
	out := make(Pipeline, 0, len(p)+len(stages))
	out = append(out, p...)
	return append(out, stages...)
}

// Stage is one step of a Pipeline.
type Stage interface {
	stageName() string
}

// Match keeps documents satisfying Cond.
type Match struct {
	Cond Cond
}

// Lookup joins documents from another collection into the array field As.
// LocalField values are flattened, so an array of ids joins every element.
// Pipeline, when set, runs over the joined documents before they are stored.
type Lookup struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
	Pipeline     Pipeline
}

// AddFields assigns computed fields in order.
type AddFields struct {
	Fields []Assign
}

// Project keeps the listed top-level fields. _id is kept unless ExcludeID.
type Project struct {
	Fields    []string
	ExcludeID bool
}

// Sort orders documents by Keys; ties keep their input order.
type Sort struct {
	Keys []SortKey
}

type Skip struct {
	N int64
}

type Limit struct {
	N int64
}

// Count replaces the stream with a single {Field: n} document, or nothing
// when there is no input.
type Count struct {
	Field string
}

// Group folds documents sharing the same ID expression. A nil ID folds the
// whole stream into one document.
type Group struct {
	ID     Expr
	Fields []Accumulator
}

// Accumulator sums Expr over a group into Name.
type Accumulator struct {
	Name string
	Sum  Expr
}

// Assign binds an expression result to a field name.
type Assign struct {
	Name string
	Expr Expr
}

// Set is shorthand for an Assign.
func Set(name string, e Expr) Assign { return Assign{Name: name, Expr: e} }

func (Match) stageName() string     { return "$match" }
func (Lookup) stageName() string    { return "$lookup" }
func (AddFields) stageName() string { return "$addFields" }
func (Project) stageName() string   { return "$project" }
func (Sort) stageName() string      { return "$sort" }
func (Skip) stageName() string      { return "$skip" }
func (Limit) stageName() string     { return "$limit" }
func (Count) stageName() string     { return "$count" }
func (Group) stageName() string     { return "$group" }

// Expr is a value computed per document inside AddFields, Group or a
// SetExpr update.
type Expr interface {
	expr()
}

type fieldRef struct{ path string }
type literal struct{ v any }
type firstOf struct{ e Expr }
type sizeOf struct{ e Expr }
type inArray struct{ needle, haystack Expr }
type notOf struct{ e Expr }
type sumOf struct{ e Expr }

func (fieldRef) expr() {}
func (literal) expr()  {}
func (firstOf) expr()  {}
func (sizeOf) expr()   {}
func (inArray) expr()  {}
func (notOf) expr()    {}
func (sumOf) expr()    {}

// Field references a (dotted) field of the current document. A path through
// an array of sub-documents yields the array of inner values.
func Field(path string) Expr { return fieldRef{path: path} }

// Value is a literal.
func Value(v any) Expr { return literal{v: v} }

// First yields the first element of an array, or null when it is empty.
func First(e Expr) Expr { return firstOf{e: e} }

// Size yields the length of an array; a missing array has size 0.
func Size(e Expr) Expr { return sizeOf{e: e} }

// IsIn reports whether needle is an element of the haystack array.
func IsIn(needle, haystack Expr) Expr { return inArray{needle: needle, haystack: haystack} }

// Not negates a boolean expression.
func Not(e Expr) Expr { return notOf{e: e} }

// Sum adds the elements of an array, or acts as the accumulator inside Group.
func Sum(e Expr) Expr { return sumOf{e: e} }

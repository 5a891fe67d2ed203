package docstore

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// normalize converts decoded BSON into the shapes the evaluator works on:
// documents become bson.M, arrays []any, integers int64 and datetimes
// time.Time in UTC.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case bson.M:
		m := make(bson.M, len(t))
		for k, x := range t {
			m[k] = normalize(x)
		}
		return m
	case map[string]any:
		m := make(bson.M, len(t))
		for k, x := range t {
			m[k] = normalize(x)
		}
		return m
	case bson.D:
		m := make(bson.M, len(t))
		for _, e := range t {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case bson.A:
		return normalizeSlice([]any(t))
	case []any:
		return normalizeSlice(t)
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	case bson.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	case string, bool, int64, float64, bson.ObjectID:
		return v
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

func normalizeSlice(in []any) []any {
	out := make([]any, len(in))
	for i, x := range in {
		out[i] = normalize(x)
	}
	return out
}

// toDocument turns a struct or map into a normalized bson.M.
func toDocument(doc any) (bson.M, error) {
	switch d := doc.(type) {
	case bson.M:
		return normalize(d).(bson.M), nil
	case bson.D:
		return normalize(d).(bson.M), nil
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("docstore: marshal document: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("docstore: decode document: %w", err)
	}
	return normalize(m).(bson.M), nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		m := make(bson.M, len(t))
		for k, x := range t {
			m[k] = cloneValue(x)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cloneValue(x)
		}
		return out
	default:
		return v
	}
}

func cloneDoc(d bson.M) bson.M { return cloneValue(d).(bson.M) }

// ---------------------------------------------------------------------------
// Paths

// queryPath resolves a dotted path with query semantics: arrays fan out and
// found reports whether any branch reached the leaf.
func queryPath(v any, parts []string) (vals []any, found bool) {
	if len(parts) == 0 {
		return []any{v}, true
	}
	switch t := v.(type) {
	case bson.M:
		child, ok := t[parts[0]]
		if !ok {
			return nil, false
		}
		return queryPath(child, parts[1:])
	case []any:
		for _, el := range t {
			if _, isDoc := el.(bson.M); !isDoc {
				continue
			}
			vs, ok := queryPath(el, parts)
			if ok {
				found = true
				vals = append(vals, vs...)
			}
		}
	}
	return vals, found
}

// exprPath resolves a dotted path with expression semantics: a path through
// an array of documents yields the array of inner values.
func exprPath(v any, parts []string) any {
	if len(parts) == 0 {
		return v
	}
	switch t := v.(type) {
	case bson.M:
		child, ok := t[parts[0]]
		if !ok {
			return nil
		}
		return exprPath(child, parts[1:])
	case []any:
		out := make([]any, 0, len(t))
		for _, el := range t {
			if _, isDoc := el.(bson.M); !isDoc {
				continue
			}
			if r := exprPath(el, parts); r != nil {
				out = append(out, r)
			}
		}
		return out
	}
	return nil
}

func splitPath(path string) []string { return strings.Split(path, ".") }

func setPath(doc bson.M, path string, value any) {
	parts := splitPath(path)
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(bson.M)
		if !ok {
			next = bson.M{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

func unsetPath(doc bson.M, path string) {
	parts := splitPath(path)
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(bson.M)
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, parts[len(parts)-1])
}

func getPath(doc bson.M, path string) (any, bool) {
	parts := splitPath(path)
	var cur any = doc
	for _, p := range parts {
		m, ok := cur.(bson.M)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// ---------------------------------------------------------------------------
// Comparison

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case int64, float64, int, int32:
		return 1
	case string:
		return 2
	case bson.M:
		return 3
	case []any:
		return 4
	case bson.ObjectID:
		return 7
	case bool:
		return 8
	case time.Time:
		return 9
	default:
		return 10
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case int:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := a.(type) {
	case nil:
		return 0
	case string:
		return strings.Compare(x, b.(string))
	case bson.ObjectID:
		y := b.(bson.ObjectID)
		return bytes.Compare(x[:], y[:])
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case time.Time:
		return x.Compare(b.(time.Time))
	case []any:
		y := b.([]any)
		for i := 0; i < len(x) && i < len(y); i++ {
			if c := compareValues(x[i], y[i]); c != 0 {
				return c
			}
		}
		return len(x) - len(y)
	}
	if ra == 1 {
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	if reflect.DeepEqual(a, b) {
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func equalValues(a, b any) bool { return compareValues(a, b) == 0 }

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int64, float64, int, int32:
		return toFloat(t) != 0
	}
	return true
}

// ---------------------------------------------------------------------------
// Filters

func matches(doc bson.M, c Cond) bool {
	switch c.op {
	case opAll:
		return true
	case opAnd:
		for _, child := range c.children {
			if !matches(doc, child) {
				return false
			}
		}
		return true
	case opOr:
		if len(c.children) == 0 {
			return true
		}
		for _, child := range c.children {
			if matches(doc, child) {
				return true
			}
		}
		return false
	}

	vals, found := queryPath(doc, splitPath(c.field))
	switch c.op {
	case opEq:
		return matchEq(vals, found, normalize(c.value))
	case opNe:
		return !matchEq(vals, found, normalize(c.value))
	case opIn:
		for _, want := range c.values {
			if matchEq(vals, found, normalize(want)) {
				return true
			}
		}
		return false
	case opExists:
		return found == c.value.(bool)
	case opContains:
		for _, v := range vals {
			if s, ok := v.(string); ok && c.re.MatchString(s) {
				return true
			}
		}
		return false
	}
	return false
}

func matchEq(vals []any, found bool, want any) bool {
	if want == nil && !found {
		return true
	}
	for _, v := range vals {
		if equalValues(v, want) {
			return true
		}
		if arr, ok := v.([]any); ok {
			for _, el := range arr {
				if equalValues(el, want) {
					return true
				}
			}
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Expressions

func evalExpr(doc bson.M, e Expr) any {
	switch x := e.(type) {
	case fieldRef:
		return exprPath(doc, splitPath(x.path))
	case literal:
		return normalize(x.v)
	case firstOf:
		if arr, ok := evalExpr(doc, x.e).([]any); ok && len(arr) > 0 {
			return arr[0]
		}
		return nil
	case sizeOf:
		if arr, ok := evalExpr(doc, x.e).([]any); ok {
			return int64(len(arr))
		}
		return int64(0)
	case inArray:
		needle := evalExpr(doc, x.needle)
		arr, _ := evalExpr(doc, x.haystack).([]any)
		for _, el := range arr {
			if equalValues(el, needle) {
				return true
			}
		}
		return false
	case notOf:
		return !truthy(evalExpr(doc, x.e))
	case sumOf:
		v := evalExpr(doc, x.e)
		if arr, ok := v.([]any); ok {
			var total any = int64(0)
			for _, el := range arr {
				total = addNumbers(total, el)
			}
			return total
		}
		return addNumbers(int64(0), v)
	}
	return nil
}

// addNumbers adds b to the running total a, ignoring non-numeric b.
func addNumbers(a, b any) any {
	switch n := b.(type) {
	case int64:
		if t, ok := a.(int64); ok {
			return t + n
		}
		return toFloat(a) + float64(n)
	case float64:
		return toFloat(a) + n
	case int, int32:
		return addNumbers(a, toFloat(n))
	}
	return a
}

// ---------------------------------------------------------------------------
// Pipelines

// sourceFunc returns the documents of a collection in natural order. The
// evaluator never mutates them.
type sourceFunc func(collection string) []bson.M

func runPipeline(docs []bson.M, p Pipeline, source sourceFunc) ([]bson.M, error) {
	for _, s := range p {
		var err error
		docs, err = runStage(docs, s, source)
		if err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func runStage(docs []bson.M, s Stage, source sourceFunc) ([]bson.M, error) {
	switch st := s.(type) {
	case Match:
		out := make([]bson.M, 0, len(docs))
		for _, d := range docs {
			if matches(d, st.Cond) {
				out = append(out, d)
			}
		}
		return out, nil

	case Lookup:
		foreign := source(st.From)
		out := make([]bson.M, 0, len(docs))
		for _, d := range docs {
			local, _ := queryPath(d, splitPath(st.LocalField))
			keys := flatten(local)
			var joined []bson.M
			for _, f := range foreign {
				fvals, ffound := queryPath(f, splitPath(st.ForeignField))
				if joinMatches(keys, fvals, ffound) {
					joined = append(joined, cloneDoc(f))
				}
			}
			joined, err := runPipeline(joined, st.Pipeline, source)
			if err != nil {
				return nil, err
			}
			arr := make([]any, len(joined))
			for i, j := range joined {
				arr[i] = j
			}
			nd := cloneDoc(d)
			setPath(nd, st.As, arr)
			out = append(out, nd)
		}
		return out, nil

	case AddFields:
		out := make([]bson.M, 0, len(docs))
		for _, d := range docs {
			nd := cloneDoc(d)
			for _, f := range st.Fields {
				setPath(nd, f.Name, evalExpr(nd, f.Expr))
			}
			out = append(out, nd)
		}
		return out, nil

	case Project:
		out := make([]bson.M, 0, len(docs))
		for _, d := range docs {
			nd := bson.M{}
			if !st.ExcludeID {
				if id, ok := d["_id"]; ok {
					nd["_id"] = id
				}
			}
			for _, f := range st.Fields {
				if v, ok := getPath(d, f); ok {
					setPath(nd, f, v)
				}
			}
			out = append(out, nd)
		}
		return out, nil

	case Sort:
		out := append([]bson.M(nil), docs...)
		sort.SliceStable(out, func(i, j int) bool {
			for _, k := range st.Keys {
				a, _ := getPath(out[i], k.Field)
				b, _ := getPath(out[j], k.Field)
				c := compareValues(a, b)
				if c == 0 {
					continue
				}
				if k.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
		return out, nil

	case Skip:
		if st.N >= int64(len(docs)) {
			return []bson.M{}, nil
		}
		if st.N <= 0 {
			return docs, nil
		}
		return docs[st.N:], nil

	case Limit:
		if st.N > 0 && st.N < int64(len(docs)) {
			return docs[:st.N], nil
		}
		return docs, nil

	case Count:
		if len(docs) == 0 {
			return []bson.M{}, nil
		}
		return []bson.M{{st.Field: int64(len(docs))}}, nil

	case Group:
		type group struct {
			id  any
			acc bson.M
		}
		var groups []*group
		for _, d := range docs {
			var id any
			if st.ID != nil {
				id = evalExpr(d, st.ID)
			}
			var g *group
			for _, existing := range groups {
				if equalValues(existing.id, id) {
					g = existing
					break
				}
			}
			if g == nil {
				g = &group{id: id, acc: bson.M{}}
				for _, a := range st.Fields {
					g.acc[a.Name] = int64(0)
				}
				groups = append(groups, g)
			}
			for _, a := range st.Fields {
				g.acc[a.Name] = addNumbers(g.acc[a.Name], evalExpr(d, a.Sum))
			}
		}
		out := make([]bson.M, 0, len(groups))
		for _, g := range groups {
			nd := bson.M{"_id": g.id}
			for k, v := range g.acc {
				nd[k] = v
			}
			out = append(out, nd)
		}
		return out, nil
	}
	return nil, fmt.Errorf("docstore: unsupported stage %T", s)
}

func flatten(vals []any) []any {
	var out []any
	for _, v := range vals {
		if arr, ok := v.([]any); ok {
			out = append(out, arr...)
			continue
		}
		out = append(out, v)
	}
	return out
}

func joinMatches(keys []any, foreign []any, found bool) bool {
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if matchEq(foreign, found, k) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Updates

func applyUpdate(doc bson.M, u Update) error {
	if len(u.SetExpr) > 0 {
		if u.usesOperators() {
			return errMixedUpdate
		}
		computed := make([]any, len(u.SetExpr))
		for i, a := range u.SetExpr {
			computed[i] = evalExpr(doc, a.Expr)
		}
		for k, v := range u.Set {
			setPath(doc, k, normalize(v))
		}
		for i, a := range u.SetExpr {
			setPath(doc, a.Name, computed[i])
		}
		return nil
	}

	for k, v := range u.Set {
		setPath(doc, k, normalize(v))
	}
	for _, k := range u.Unset {
		unsetPath(doc, k)
	}
	for k, v := range u.Inc {
		cur, _ := getPath(doc, k)
		setPath(doc, k, addNumbers(addNumbers(int64(0), cur), normalize(v)))
	}
	for k, v := range u.Push {
		arr, err := arrayAt(doc, k)
		if err != nil {
			return err
		}
		each, ok := v.(PushEach)
		if !ok {
			setPath(doc, k, append(arr, normalize(v)))
			continue
		}
		for _, el := range each.Values {
			arr = append(arr, normalize(el))
		}
		if each.KeepLast > 0 && len(arr) > each.KeepLast {
			arr = arr[len(arr)-each.KeepLast:]
		}
		setPath(doc, k, arr)
	}
	for k, v := range u.Pull {
		arr, err := arrayAt(doc, k)
		if err != nil {
			return err
		}
		want := normalize(v)
		kept := make([]any, 0, len(arr))
		for _, el := range arr {
			if !equalValues(el, want) {
				kept = append(kept, el)
			}
		}
		setPath(doc, k, kept)
	}
	for k, v := range u.AddToSet {
		arr, err := arrayAt(doc, k)
		if err != nil {
			return err
		}
		want := normalize(v)
		present := false
		for _, el := range arr {
			if equalValues(el, want) {
				present = true
				break
			}
		}
		if !present {
			arr = append(arr, want)
		}
		setPath(doc, k, arr)
	}
	return nil
}

func arrayAt(doc bson.M, path string) ([]any, error) {
	v, ok := getPath(doc, path)
	if !ok || v == nil {
		return []any{}, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("docstore: field %q is not an array", path)
	}
	return append([]any(nil), arr...), nil
}

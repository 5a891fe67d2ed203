package docstore

import (
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var errMixedUpdate = errors.New("docstore: SetExpr cannot be combined with update operators")

// BSON renders the filter as a MongoDB query document.
func (c Cond) BSON() bson.D {
	switch c.op {
	case opEq:
		return bson.D{{Key: c.field, Value: c.value}}
	case opNe:
		return bson.D{{Key: c.field, Value: bson.D{{Key: "$ne", Value: c.value}}}}
	case opIn:
		return bson.D{{Key: c.field, Value: bson.D{{Key: "$in", Value: bson.A(c.values)}}}}
	case opExists:
		return bson.D{{Key: c.field, Value: bson.D{{Key: "$exists", Value: c.value}}}}
	case opContains:
		return bson.D{{Key: c.field, Value: bson.Regex{Pattern: regexp.QuoteMeta(c.value.(string)), Options: "i"}}}
	case opAnd, opOr:
		switch len(c.children) {
		case 0:
			return bson.D{}
		case 1:
			return c.children[0].BSON()
		}
		key := "$and"
		if c.op == opOr {
			key = "$or"
		}
		parts := make(bson.A, 0, len(c.children))
		for _, child := range c.children {
			parts = append(parts, child.BSON())
		}
		return bson.D{{Key: key, Value: parts}}
	default:
		return bson.D{}
	}
}

// BSON renders the pipeline for Collection.Aggregate.
func (p Pipeline) BSON() mongo.Pipeline {
	out := make(mongo.Pipeline, 0, len(p))
	for _, s := range p {
		out = append(out, bson.D{{Key: s.stageName(), Value: stageBody(s)}})
	}
	return out
}

func stageBody(s Stage) any {
	switch st := s.(type) {
	case Match:
		return st.Cond.BSON()
	case Lookup:
		body := bson.D{
			{Key: "from", Value: st.From},
			{Key: "localField", Value: st.LocalField},
			{Key: "foreignField", Value: st.ForeignField},
			{Key: "as", Value: st.As},
		}
		if len(st.Pipeline) > 0 {
			body = append(body, bson.E{Key: "pipeline", Value: st.Pipeline.BSON()})
		}
		return body
	case AddFields:
		return assignsBSON(st.Fields)
	case Project:
		body := bson.D{}
		for _, f := range st.Fields {
			body = append(body, bson.E{Key: f, Value: 1})
		}
		if st.ExcludeID {
			body = append(body, bson.E{Key: "_id", Value: 0})
		}
		return body
	case Sort:
		return sortBSON(st.Keys)
	case Skip:
		return st.N
	case Limit:
		return st.N
	case Count:
		return st.Field
	case Group:
		var id any
		if st.ID != nil {
			id = exprBSON(st.ID)
		}
		body := bson.D{{Key: "_id", Value: id}}
		for _, acc := range st.Fields {
			body = append(body, bson.E{Key: acc.Name, Value: bson.D{{Key: "$sum", Value: exprBSON(acc.Sum)}}})
		}
		return body
	default:
		panic(fmt.Sprintf("docstore: unknown stage %T", s))
	}
}

func assignsBSON(fields []Assign) bson.D {
	body := make(bson.D, 0, len(fields))
	for _, f := range fields {
		body = append(body, bson.E{Key: f.Name, Value: exprBSON(f.Expr)})
	}
	return body
}

func sortBSON(keys []SortKey) bson.D {
	body := make(bson.D, 0, len(keys))
	for _, k := range keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		body = append(body, bson.E{Key: k.Field, Value: dir})
	}
	return body
}

func exprBSON(e Expr) any {
	switch x := e.(type) {
	case fieldRef:
		return "$" + x.path
	case literal:
		return bson.D{{Key: "$literal", Value: x.v}}
	case firstOf:
		return bson.D{{Key: "$first", Value: exprBSON(x.e)}}
	case sizeOf:
		return bson.D{{Key: "$size", Value: ifNullArray(exprBSON(x.e))}}
	case inArray:
		return bson.D{{Key: "$in", Value: bson.A{exprBSON(x.needle), ifNullArray(exprBSON(x.haystack))}}}
	case notOf:
		return bson.D{{Key: "$not", Value: bson.A{exprBSON(x.e)}}}
	case sumOf:
		return bson.D{{Key: "$sum", Value: exprBSON(x.e)}}
	default:
		panic(fmt.Sprintf("docstore: unknown expression %T", e))
	}
}

func ifNullArray(v any) bson.D {
	return bson.D{{Key: "$ifNull", Value: bson.A{v, bson.A{}}}}
}

// render produces either a classic operator document or, for SetExpr, an
// update pipeline.
func (u Update) render() (any, error) {
	if len(u.SetExpr) > 0 {
		if u.usesOperators() {
			return nil, errMixedUpdate
		}
		set := bson.D{}
		for k, v := range u.Set {
			set = append(set, bson.E{Key: k, Value: bson.D{{Key: "$literal", Value: v}}})
		}
		set = append(set, assignsBSON(u.SetExpr)...)
		return mongo.Pipeline{{{Key: "$set", Value: set}}}, nil
	}

	doc := bson.D{}
	if len(u.Set) > 0 {
		doc = append(doc, bson.E{Key: "$set", Value: bson.M(u.Set)})
	}
	if len(u.Unset) > 0 {
		unset := bson.M{}
		for _, f := range u.Unset {
			unset[f] = ""
		}
		doc = append(doc, bson.E{Key: "$unset", Value: unset})
	}
	if len(u.Inc) > 0 {
		doc = append(doc, bson.E{Key: "$inc", Value: bson.M(u.Inc)})
	}
	if len(u.Push) > 0 {
		push := bson.M{}
		for k, v := range u.Push {
			push[k] = pushValueBSON(v)
		}
		doc = append(doc, bson.E{Key: "$push", Value: push})
	}
	if len(u.Pull) > 0 {
		doc = append(doc, bson.E{Key: "$pull", Value: bson.M(u.Pull)})
	}
	if len(u.AddToSet) > 0 {
		doc = append(doc, bson.E{Key: "$addToSet", Value: bson.M(u.AddToSet)})
	}
	return doc, nil
}

func pushValueBSON(v any) any {
	each, ok := v.(PushEach)
	if !ok {
		return v
	}
	values := each.Values
	if values == nil {
		values = []any{}
	}
	d := bson.D{{Key: "$each", Value: values}}
	if each.KeepLast > 0 {
		d = append(d, bson.E{Key: "$slice", Value: -each.KeepLast})
	}
	return d
}

package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestCond_BSON(t *testing.T) {
	id := bson.NewObjectID()
	tests := []struct {
		name string
		cond Cond
		want bson.D
	}{
		{"all", All(), bson.D{}},
		{"eq", Eq("owner", id), bson.D{{Key: "owner", Value: id}}},
		{"ne", Ne("videos", id), bson.D{{Key: "videos", Value: bson.D{{Key: "$ne", Value: id}}}}},
		{"single and collapses", And(Eq("a", 1)), bson.D{{Key: "a", Value: 1}}},
		{
			"contains escapes",
			Contains("title", "a+b"),
			bson.D{{Key: "title", Value: bson.Regex{Pattern: `a\+b`, Options: "i"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.BSON())
		})
	}
}

func TestPipeline_BSON_Lookup(t *testing.T) {
	p := Pipeline{
		Lookup{From: "users", LocalField: "owner", ForeignField: "_id", As: "owner",
			Pipeline: Pipeline{Project{Fields: []string{"userName"}}}},
		AddFields{Fields: []Assign{Set("owner", First(Field("owner")))}},
	}
	got := p.BSON()
	require.Len(t, got, 2)
	assert.Equal(t, "$lookup", got[0][0].Key)

	body := got[0][0].Value.(bson.D)
	assert.Equal(t, bson.E{Key: "from", Value: "users"}, body[0])
	assert.Equal(t, "pipeline", body[4].Key)
	assert.Equal(t, mongo.Pipeline{{{Key: "$project", Value: bson.D{{Key: "userName", Value: 1}}}}}, body[4].Value)

	assert.Equal(t, bson.D{{Key: "owner", Value: bson.D{{Key: "$first", Value: "$owner"}}}}, got[1][0].Value)
}

func TestPipeline_AppendDoesNotAlias(t *testing.T) {
	base := make(Pipeline, 0, 4)
	base = append(base, Match{Cond: All()})
	a := base.Append(Skip{N: 1})
	b := base.Append(Count{Field: "n"})
	assert.IsType(t, Skip{}, a[1])
	assert.IsType(t, Count{}, b[1])
}

func TestUpdate_Render(t *testing.T) {
	doc, err := Update{Set: map[string]any{"title": "x"}, Inc: map[string]any{"views": 1}}.render()
	require.NoError(t, err)
	d := doc.(bson.D)
	assert.Equal(t, "$set", d[0].Key)
	assert.Equal(t, "$inc", d[1].Key)

	pipe, err := Update{SetExpr: []Assign{Set("isPublished", Not(Field("isPublished")))}}.render()
	require.NoError(t, err)
	assert.IsType(t, mongo.Pipeline{}, pipe)
}

func TestUpdate_RenderPushEach(t *testing.T) {
	id := bson.NewObjectID()
	doc, err := Update{Push: map[string]any{
		"watchHistory": PushEach{Values: []any{id}, KeepLast: 100},
		"tags":         "go",
	}}.render()
	require.NoError(t, err)

	d := doc.(bson.D)
	require.Len(t, d, 1)
	assert.Equal(t, "$push", d[0].Key)
	push := d[0].Value.(bson.M)
	assert.Equal(t, bson.D{{Key: "$each", Value: []any{id}}, {Key: "$slice", Value: -100}}, push["watchHistory"])
	assert.Equal(t, "go", push["tags"])
}

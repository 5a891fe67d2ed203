package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type testUser struct {
	ID       bson.ObjectID   `bson:"_id"`
	UserName string          `bson:"userName"`
	Tags     []string        `bson:"tags"`
	Videos   []bson.ObjectID `bson:"videos"`
	Views    int64           `bson:"views"`
	Active   bool            `bson:"active"`
}

func seedUsers(t *testing.T, s *MemoryStore, users ...testUser) {
	t.Helper()
	for _, u := range users {
		require.NoError(t, s.Collection("users").InsertOne(context.Background(), u))
	}
}

// =============================================================================
// Filters
// =============================================================================

func TestMemoryStore_FindOne_EqMatchesArrayElements(t *testing.T) {
	s := NewMemoryStore()
	a := testUser{ID: bson.NewObjectID(), UserName: "alice", Tags: []string{"go", "mongo"}}
	b := testUser{ID: bson.NewObjectID(), UserName: "bob", Tags: []string{"rust"}}
	seedUsers(t, s, a, b)

	var got testUser
	err := s.Collection("users").FindOne(context.Background(), Eq("tags", "mongo"), &got)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserName)

	n, err := s.Collection("users").CountDocuments(context.Background(), Ne("tags", "go"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryStore_FindOne_NotFound(t *testing.T) {
	s := NewMemoryStore()
	var got testUser
	err := s.Collection("users").FindOne(context.Background(), Eq("userName", "ghost"), &got)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_Contains_IsLiteralAndCaseInsensitive(t *testing.T) {
	s := NewMemoryStore()
	seedUsers(t, s,
		testUser{ID: bson.NewObjectID(), UserName: "Go.Dev"},
		testUser{ID: bson.NewObjectID(), UserName: "goxdev"},
	)

	n, err := s.Collection("users").CountDocuments(context.Background(), Contains("userName", "go.dev"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "the dot must not act as a wildcard")

	n, err = s.Collection("users").CountDocuments(context.Background(), Or(Contains("userName", "GOX"), Eq("userName", "none")))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// =============================================================================
// Writes
// =============================================================================

func TestMemoryStore_UniqueIndex(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.EnsureIndexes(ctx, []IndexSpec{{Collection: "users", Name: "uniq_name", Keys: []string{"userName"}, Unique: true}}))

	seedUsers(t, s, testUser{ID: bson.NewObjectID(), UserName: "alice"})
	err := s.Collection("users").InsertOne(ctx, testUser{ID: bson.NewObjectID(), UserName: "alice"})
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	bob := testUser{ID: bson.NewObjectID(), UserName: "bob"}
	seedUsers(t, s, bob)
	_, err = s.Collection("users").UpdateOne(ctx, Eq("_id", bob.ID), Update{Set: map[string]any{"userName": "alice"}})
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	var got testUser
	require.NoError(t, s.Collection("users").FindOne(ctx, Eq("_id", bob.ID), &got))
	assert.Equal(t, "bob", got.UserName, "a rejected update leaves the document untouched")
}

func TestMemoryStore_UpdateOperators(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	v1, v2 := bson.NewObjectID(), bson.NewObjectID()
	u := testUser{ID: bson.NewObjectID(), UserName: "alice", Videos: []bson.ObjectID{v1}}
	seedUsers(t, s, u)
	users := s.Collection("users")

	var got testUser
	require.NoError(t, users.FindOneAndUpdate(ctx, Eq("_id", u.ID), Update{
		Inc:  map[string]any{"views": 2},
		Push: map[string]any{"videos": v2},
	}, &got))
	assert.Equal(t, int64(2), got.Views)
	assert.Equal(t, []bson.ObjectID{v1, v2}, got.Videos)

	res, err := users.UpdateOne(ctx, Eq("_id", u.ID), Update{AddToSet: map[string]any{"videos": v1}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Matched)
	assert.Equal(t, int64(0), res.Modified)

	require.NoError(t, users.FindOneAndUpdate(ctx, Eq("_id", u.ID), Update{Pull: map[string]any{"videos": v1}}, &got))
	assert.Equal(t, []bson.ObjectID{v2}, got.Videos)

	require.NoError(t, users.FindOneAndUpdate(ctx, Eq("_id", u.ID), Update{
		SetExpr: []Assign{Set("active", Not(Field("active")))},
	}, &got))
	assert.True(t, got.Active)

	_, err = users.UpdateOne(ctx, Eq("_id", u.ID), Update{
		SetExpr: []Assign{Set("active", Value(false))},
		Push:    map[string]any{"videos": v1},
	})
	assert.Error(t, err)
}

func TestMemoryStore_PushEachKeepsLast(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	ids := []bson.ObjectID{bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID()}
	u := testUser{ID: bson.NewObjectID(), Videos: ids[:3]}
	seedUsers(t, s, u)
	users := s.Collection("users")

	var got testUser
	require.NoError(t, users.FindOneAndUpdate(ctx, Eq("_id", u.ID), Update{
		Push: map[string]any{"videos": PushEach{Values: []any{ids[3]}, KeepLast: 2}},
	}, &got))
	assert.Equal(t, []bson.ObjectID{ids[2], ids[3]}, got.Videos)

	require.NoError(t, users.FindOneAndUpdate(ctx, Eq("_id", u.ID), Update{
		Push: map[string]any{"videos": PushEach{Values: []any{ids[0], ids[1]}}},
	}, &got))
	assert.Equal(t, []bson.ObjectID{ids[2], ids[3], ids[0], ids[1]}, got.Videos, "no KeepLast means no trim")
}

func TestMemoryStore_FindOneAndDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	u := testUser{ID: bson.NewObjectID(), UserName: "alice"}
	seedUsers(t, s, u)

	var removed testUser
	require.NoError(t, s.Collection("users").FindOneAndDelete(ctx, Eq("userName", "alice"), &removed))
	assert.Equal(t, u.ID, removed.ID)

	err := s.Collection("users").FindOneAndDelete(ctx, Eq("userName", "alice"), nil)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_Find_SortSkipLimit(t *testing.T) {
	s := NewMemoryStore()
	for _, name := range []string{"c", "a", "d", "b"} {
		seedUsers(t, s, testUser{ID: bson.NewObjectID(), UserName: name})
	}

	var got []testUser
	err := s.Collection("users").Find(context.Background(), All(), FindOptions{Sort: []SortKey{Asc("userName")}, Skip: 1, Limit: 2}, &got)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].UserName)
	assert.Equal(t, "c", got[1].UserName)
}

// =============================================================================
// Pipelines
// =============================================================================

func TestMemoryStore_Aggregate_LookupReshape(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	owner := bson.NewObjectID()
	viewer := bson.NewObjectID()
	require.NoError(t, s.Collection("users").InsertOne(ctx, bson.M{"_id": owner, "userName": "alice", "password": "secret"}))
	video := bson.NewObjectID()
	require.NoError(t, s.Collection("videos").InsertOne(ctx, bson.M{"_id": video, "title": "t", "owner": owner}))
	require.NoError(t, s.Collection("likes").InsertOne(ctx, bson.M{"_id": bson.NewObjectID(), "likedBy": viewer, "targetKind": "video", "targetId": video}))
	require.NoError(t, s.Collection("likes").InsertOne(ctx, bson.M{"_id": bson.NewObjectID(), "likedBy": owner, "targetKind": "comment", "targetId": video}))

	p := Pipeline{
		Match{Cond: Eq("_id", video)},
		Lookup{From: "users", LocalField: "owner", ForeignField: "_id", As: "owner",
			Pipeline: Pipeline{Project{Fields: []string{"userName"}}}},
		Lookup{From: "likes", LocalField: "_id", ForeignField: "targetId", As: "likes",
			Pipeline: Pipeline{Match{Cond: Eq("targetKind", "video")}}},
		AddFields{Fields: []Assign{
			Set("owner", First(Field("owner"))),
			Set("likesCount", Size(Field("likes"))),
			Set("isLiked", IsIn(Value(viewer), Field("likes.likedBy"))),
		}},
		Project{Fields: []string{"title", "owner", "likesCount", "isLiked"}},
	}

	docs, err := s.Collection("videos").Aggregate(ctx, p)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, int64(1), doc["likesCount"])
	assert.Equal(t, true, doc["isLiked"])
	ownerDoc, ok := doc["owner"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "alice", ownerDoc["userName"])
	assert.NotContains(t, ownerDoc, "password")
	assert.NotContains(t, doc, "likes")
}

func TestMemoryStore_Aggregate_ArrayLocalField(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	v1, v2, v3 := bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID()
	for _, id := range []bson.ObjectID{v1, v2, v3} {
		require.NoError(t, s.Collection("videos").InsertOne(ctx, bson.M{"_id": id, "duration": 1.5}))
	}
	u := testUser{ID: bson.NewObjectID(), UserName: "alice", Videos: []bson.ObjectID{v3, v1}}
	seedUsers(t, s, u)

	docs, err := s.Collection("users").Aggregate(ctx, Pipeline{
		Lookup{From: "videos", LocalField: "videos", ForeignField: "_id", As: "joined"},
		AddFields{Fields: []Assign{
			Set("count", Size(Field("joined"))),
			Set("total", Sum(Field("joined.duration"))),
			Set("missing", First(Field("nothing"))),
		}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, int64(2), docs[0]["count"])
	assert.Equal(t, 3.0, docs[0]["total"])
	assert.Nil(t, docs[0]["missing"])
}

func TestMemoryStore_Aggregate_CountAndGroup(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	docs, err := s.Collection("videos").Aggregate(ctx, Pipeline{Count{Field: "total"}})
	require.NoError(t, err)
	assert.Empty(t, docs, "count over nothing yields no document")

	for _, views := range []int64{3, 4} {
		require.NoError(t, s.Collection("videos").InsertOne(ctx, bson.M{"_id": bson.NewObjectID(), "views": views}))
	}
	docs, err = s.Collection("videos").Aggregate(ctx, Pipeline{Group{Fields: []Accumulator{
		{Name: "videos", Sum: Value(1)},
		{Name: "views", Sum: Field("views")},
	}}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, int64(2), docs[0]["videos"])
	assert.Equal(t, int64(7), docs[0]["views"])
}

func TestDecodeAll_NeverNil(t *testing.T) {
	got, err := DecodeAll[testUser](nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

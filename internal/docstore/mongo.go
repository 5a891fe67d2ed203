package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore executes descriptors against a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore wraps a connected client. The store owns the client from
// here on and disconnects it on Close.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database)}
}

func (s *MongoStore) Collection(name string) Collection {
	return &mongoCollection{coll: s.db.Collection(name)}
}

// EnsureIndexes creates the declared indexes; existing identical indexes are
// left alone by the server.
func (s *MongoStore) EnsureIndexes(ctx context.Context, specs []IndexSpec) error {
	byCollection := make(map[string][]mongo.IndexModel)
	var order []string
	for _, spec := range specs {
		keys := bson.D{}
		for _, k := range spec.Keys {
			keys = append(keys, bson.E{Key: k, Value: 1})
		}
		opts := options.Index().SetUnique(spec.Unique)
		if spec.Name != "" {
			opts.SetName(spec.Name)
		}
		if _, seen := byCollection[spec.Collection]; !seen {
			order = append(order, spec.Collection)
		}
		byCollection[spec.Collection] = append(byCollection[spec.Collection], mongo.IndexModel{Keys: keys, Options: opts})
	}
	for _, name := range order {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, byCollection[name]); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type mongoCollection struct {
	coll *mongo.Collection
}

func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicateKey)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc any) error {
	_, err := c.coll.InsertOne(ctx, doc)
	return translate("insert into "+c.coll.Name(), err)
}

func (c *mongoCollection) FindOne(ctx context.Context, filter Cond, out any) error {
	err := c.coll.FindOne(ctx, filter.BSON()).Decode(out)
	return translate("find in "+c.coll.Name(), err)
}

func (c *mongoCollection) Find(ctx context.Context, filter Cond, opts FindOptions, out any) error {
	fo := options.Find()
	if len(opts.Sort) > 0 {
		fo.SetSort(sortBSON(opts.Sort))
	}
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	cursor, err := c.coll.Find(ctx, filter.BSON(), fo)
	if err != nil {
		return translate("find in "+c.coll.Name(), err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c *mongoCollection) FindOneAndUpdate(ctx context.Context, filter Cond, update Update, out any) error {
	doc, err := update.render()
	if err != nil {
		return err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := c.coll.FindOneAndUpdate(ctx, filter.BSON(), doc, opts)
	if out == nil {
		return translate("update "+c.coll.Name(), res.Err())
	}
	return translate("update "+c.coll.Name(), res.Decode(out))
}

func (c *mongoCollection) FindOneAndDelete(ctx context.Context, filter Cond, out any) error {
	res := c.coll.FindOneAndDelete(ctx, filter.BSON())
	if out == nil {
		return translate("delete from "+c.coll.Name(), res.Err())
	}
	return translate("delete from "+c.coll.Name(), res.Decode(out))
}

func (c *mongoCollection) UpdateOne(ctx context.Context, filter Cond, update Update) (UpdateResult, error) {
	doc, err := update.render()
	if err != nil {
		return UpdateResult{}, err
	}
	res, err := c.coll.UpdateOne(ctx, filter.BSON(), doc)
	if err != nil {
		return UpdateResult{}, translate("update "+c.coll.Name(), err)
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (c *mongoCollection) UpdateMany(ctx context.Context, filter Cond, update Update) (UpdateResult, error) {
	doc, err := update.render()
	if err != nil {
		return UpdateResult{}, err
	}
	res, err := c.coll.UpdateMany(ctx, filter.BSON(), doc)
	if err != nil {
		return UpdateResult{}, translate("update "+c.coll.Name(), err)
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (c *mongoCollection) DeleteOne(ctx context.Context, filter Cond) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, filter.BSON())
	if err != nil {
		return 0, translate("delete from "+c.coll.Name(), err)
	}
	return res.DeletedCount, nil
}

func (c *mongoCollection) DeleteMany(ctx context.Context, filter Cond) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, filter.BSON())
	if err != nil {
		return 0, translate("delete from "+c.coll.Name(), err)
	}
	return res.DeletedCount, nil
}

func (c *mongoCollection) CountDocuments(ctx context.Context, filter Cond) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, filter.BSON())
	if err != nil {
		return 0, translate("count "+c.coll.Name(), err)
	}
	return n, nil
}

// Aggregate returns normalized documents so callers see the same shapes as
// from the memory adapter.
func (c *mongoCollection) Aggregate(ctx context.Context, p Pipeline) ([]bson.M, error) {
	cursor, err := c.coll.Aggregate(ctx, p.BSON())
	if err != nil {
		return nil, translate("aggregate "+c.coll.Name(), err)
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode %s aggregate: %w", c.coll.Name(), err)
	}
	out := make([]bson.M, len(raw))
	for i, d := range raw {
		out[i] = normalize(d).(bson.M)
	}
	return out, nil
}

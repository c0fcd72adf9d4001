package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"clothing-store/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// referenceFields hold identifiers of documents in other collections. They
// are stored as native ObjectIDs so lookups written against the database
// directly keep working.
var referenceFields = map[string]struct{}{
	IDField:      {},
	"brand_id":   {},
	"product_id": {},
	"user_id":    {},
}

// MongoStore keeps each collection in a MongoDB collection of the same name.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects and pings the primary.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w: %w", ErrUnavailable, err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w: %w", ErrUnavailable, err)
	}

	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Find returns matching documents in natural order. Identifier fields keep
// their native ObjectID form.
func (s *MongoStore) Find(ctx context.Context, coll Collection, filter Filter) ([]Document, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}

	cur, err := s.db.Collection(string(coll)).Find(ctx, filterBSON(filter))
	if err != nil {
		return nil, unavailable("find", coll, err)
	}
	defer cur.Close(ctx)

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, unavailable("find", coll, err)
	}

	docs := make([]Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, fromBSON(m))
	}
	return docs, nil
}

func (s *MongoStore) FindOne(ctx context.Context, coll Collection, id string) (Document, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}

	var m bson.M
	err := s.db.Collection(string(coll)).FindOne(ctx, bson.M{IDField: nativeID(id)}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s %s: %w", coll, id, ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("find one", coll, err)
	}
	return fromBSON(m), nil
}

func (s *MongoStore) Insert(ctx context.Context, coll Collection, doc Document) (string, error) {
	if err := checkCollection(coll); err != nil {
		return "", err
	}

	body := toBSON(Filter(doc))
	if _, ok := body[IDField]; !ok {
		body[IDField] = primitive.NewObjectID()
	}

	res, err := s.db.Collection(string(coll)).InsertOne(ctx, body)
	if mongo.IsDuplicateKeyError(err) {
		return "", fmt.Errorf("%s: %w", coll, ErrDuplicateID)
	}
	if err != nil {
		return "", unavailable("insert", coll, err)
	}

	switch id := res.InsertedID.(type) {
	case primitive.ObjectID:
		return id.Hex(), nil
	default:
		return fmt.Sprint(id), nil
	}
}

// Update applies patch with $set and returns the matched count.
func (s *MongoStore) Update(ctx context.Context, coll Collection, id string, patch Document) (int64, error) {
	if err := checkCollection(coll); err != nil {
		return 0, err
	}

	set := toBSON(Filter(patch))
	delete(set, IDField)
	if len(set) == 0 {
		n, err := s.db.Collection(string(coll)).CountDocuments(ctx, bson.M{IDField: nativeID(id)})
		if err != nil {
			return 0, unavailable("update", coll, err)
		}
		return n, nil
	}

	res, err := s.db.Collection(string(coll)).UpdateOne(ctx,
		bson.M{IDField: nativeID(id)},
		bson.M{"$set": set})
	if err != nil {
		return 0, unavailable("update", coll, err)
	}
	return res.MatchedCount, nil
}

func (s *MongoStore) Delete(ctx context.Context, coll Collection, id string) (int64, error) {
	if err := checkCollection(coll); err != nil {
		return 0, err
	}

	res, err := s.db.Collection(string(coll)).DeleteOne(ctx, bson.M{IDField: nativeID(id)})
	if err != nil {
		return 0, unavailable("delete", coll, err)
	}
	return res.DeletedCount, nil
}

// nativeID turns a hex string into an ObjectID, leaving other ids untouched.
func nativeID(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func toBSON(fields map[string]any) bson.M {
	out := bson.M{}
	for k, v := range fields {
		out[k] = toBSONValue(k, v)
	}
	return out
}

func toBSONValue(field string, v any) any {
	if s, ok := v.(string); ok {
		if _, ref := referenceFields[field]; ref {
			return nativeID(s)
		}
	}
	return v
}

// filterBSON translates a Filter. A DayMatch matches BSON dates within the
// day as well as text starting with it.
func filterBSON(filter Filter) bson.M {
	out := bson.M{}
	var days bson.A
	for field, want := range filter {
		day, ok := want.(DayMatch)
		if !ok {
			out[field] = toBSONValue(field, want)
			continue
		}
		start, err := time.Parse(models.SaleDateLayout, day.Day)
		if err != nil {
			out[field] = day.Day
			continue
		}
		days = append(days, bson.M{"$or": bson.A{
			bson.M{field: bson.M{
				"$gte": primitive.NewDateTimeFromTime(start),
				"$lt":  primitive.NewDateTimeFromTime(start.AddDate(0, 0, 1)),
			}},
			bson.M{field: primitive.Regex{Pattern: "^" + regexp.QuoteMeta(day.Day)}},
		}})
	}
	if len(days) > 0 {
		out["$and"] = days
	}
	return out
}

func fromBSON(m bson.M) Document {
	doc := make(Document, len(m))
	for k, v := range m {
		doc[k] = fromBSONValue(v)
	}
	return doc
}

func fromBSONValue(v any) any {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.Decimal128:
		return val.String()
	case bson.M:
		return map[string]any(fromBSON(val))
	case bson.D:
		return map[string]any(fromBSON(val.Map()))
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = fromBSONValue(item)
		}
		return out
	default:
		return v
	}
}

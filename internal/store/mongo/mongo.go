// Package mongo implementa el adapter MongoDB del Store usando
// go.mongodb.org/mongo-driver/v2.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dropDatabas3/docstore/internal/store/core"
)

type Store[T any] struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New conecta al servidor y liga el Store a una colección.
func New[T any](ctx context.Context, uri, database, collection string) (*Store[T], error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return &Store[T]{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// FromCollection liga el Store a una colección ya abierta (el cliente
// lo administra el caller; Close no lo desconecta).
func FromCollection[T any](coll *mongo.Collection) *Store[T] {
	return &Store[T]{coll: coll}
}

func (s *Store[T]) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx, nil)
}

func (s *Store[T]) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store[T]) InsertOne(ctx context.Context, data T) (*core.Document[T], error) {
	doc := core.Document[T]{
		ID:        bson.NewObjectID().Hex(),
		CreatedAt: time.Now().UTC(),
		Data:      data,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("mongo: insert one: %w", err)
	}
	return &doc, nil
}

func (s *Store[T]) InsertMany(ctx context.Context, data []T) ([]core.Document[T], error) {
	docs := make([]core.Document[T], 0, len(data))
	rows := make([]any, 0, len(data))
	now := time.Now().UTC()
	for _, d := range data {
		doc := core.Document[T]{
			ID:        bson.NewObjectID().Hex(),
			CreatedAt: now,
			Data:      d,
		}
		docs = append(docs, doc)
		rows = append(rows, doc)
	}
	if _, err := s.coll.InsertMany(ctx, rows); err != nil {
		return nil, fmt.Errorf("mongo: insert many: %w", err)
	}
	return docs, nil
}

func (s *Store[T]) FindOne(ctx context.Context, filter core.Filter) (*core.Document[T], error) {
	var doc core.Document[T]
	err := s.coll.FindOne(ctx, toBson(filter)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find one: %w", err)
	}
	return &doc, nil
}

func (s *Store[T]) Find(ctx context.Context, filter core.Filter) ([]core.Document[T], error) {
	cur, err := s.coll.Find(ctx, toBson(filter))
	if err != nil {
		return nil, fmt.Errorf("mongo: find: %w", err)
	}
	var out []core.Document[T]
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo: find: %w", err)
	}
	return out, nil
}

func (s *Store[T]) FindOneAndUpdate(ctx context.Context, filter core.Filter, update core.Update) (*core.Document[T], error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc core.Document[T]
	err := s.coll.FindOneAndUpdate(ctx, toBson(filter), toUpdate(update), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find one and update: %w", err)
	}
	return &doc, nil
}

func (s *Store[T]) UpdateMany(ctx context.Context, filter core.Filter, update core.Update) (*core.UpdateResult, error) {
	res, err := s.coll.UpdateMany(ctx, toBson(filter), toUpdate(update))
	if err != nil {
		return nil, fmt.Errorf("mongo: update many: %w", err)
	}
	return &core.UpdateResult{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}, nil
}

func (s *Store[T]) Aggregate(ctx context.Context, p core.Pipeline) (*core.FacetResult[T], error) {
	stages, err := toPipeline(p)
	if err != nil {
		return nil, err
	}
	cur, err := s.coll.Aggregate(ctx, stages)
	if err != nil {
		return nil, fmt.Errorf("mongo: aggregate: %w", err)
	}
	var results []core.FacetResult[T]
	if err := cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("mongo: aggregate: %w", err)
	}
	if len(results) == 0 {
		return &core.FacetResult[T]{}, nil
	}
	return &results[0], nil
}

// ─────────────────────── traducción a bson ───────────────────────

func toBson(f core.Filter) bson.M {
	out := make(bson.M, len(f))
	for k, v := range f {
		switch v := v.(type) {
		case core.Regex:
			out[k] = bson.M{"$regex": v.Pattern, "$options": v.Options}
		default:
			out[k] = v
		}
	}
	return out
}

func toUpdate(u core.Update) bson.M {
	out := bson.M{}
	if len(u.Set) > 0 {
		out["$set"] = bson.M(u.Set)
	}
	if len(u.Push) > 0 {
		out["$push"] = bson.M(u.Push)
	}
	if len(u.Pull) > 0 {
		out["$pull"] = bson.M(u.Pull)
	}
	return out
}

func toPipeline(p core.Pipeline) (mongo.Pipeline, error) {
	out := make(mongo.Pipeline, 0, len(p))
	for _, st := range p {
		switch st := st.(type) {
		case core.Match:
			out = append(out, bson.D{{Key: "$match", Value: toBson(st.Filter)}})
		case core.Facet:
			facet := bson.M{}
			for name, branch := range st.Branches {
				sub, err := toPipeline(branch)
				if err != nil {
					return nil, err
				}
				facet[name] = sub
			}
			out = append(out, bson.D{{Key: "$facet", Value: facet}})
		case core.Sort:
			out = append(out, bson.D{{Key: "$sort", Value: bson.D{{Key: st.Field, Value: st.Order}}}})
		case core.Skip:
			out = append(out, bson.D{{Key: "$skip", Value: st.N}})
		case core.Limit:
			out = append(out, bson.D{{Key: "$limit", Value: st.N}})
		case core.Count:
			out = append(out, bson.D{{Key: "$count", Value: st.Field}})
		case core.AddFields:
			out = append(out, bson.D{{Key: "$addFields", Value: bson.M(st.Fields)}})
		case core.Raw:
			for k, v := range st.Stage {
				out = append(out, bson.D{{Key: k, Value: v}})
				break
			}
		default:
			return nil, fmt.Errorf("mongo: stage %T: %w", st, core.ErrNotImplemented)
		}
	}
	return out, nil
}

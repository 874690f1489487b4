package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annabel-goldman/aquarium/internal/game"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo stores accounts in the users collection, one document per username.
type Mongo struct {
	client *mongo.Client
	users  *mongo.Collection
}

func ConnectMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	m := &Mongo{client: client, users: client.Database(database).Collection("users")}
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create username index: %w", err)
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) Create(ctx context.Context, doc game.Document) error {
	_, err := m.users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", game.ErrAccountExists, doc.Username)
	}
	if err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

func (m *Mongo) FindByUsername(ctx context.Context, username string) (game.Document, error) {
	var doc game.Document
	err := m.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return game.Document{}, game.ErrAccountNotFound
	}
	if err != nil {
		return game.Document{}, fmt.Errorf("mongo find: %w", err)
	}
	return doc, nil
}

func (m *Mongo) SetFields(ctx context.Context, username string, update game.Update) error {
	return m.updateOne(ctx, username, bson.M{"$set": bson.M(update)})
}

func (m *Mongo) Push(ctx context.Context, username, field string, value any, set game.Update) error {
	change := bson.M{"$push": bson.M{field: value}}
	if len(set) > 0 {
		change["$set"] = bson.M(set)
	}
	return m.updateOne(ctx, username, change)
}

func (m *Mongo) Pull(ctx context.Context, username, field, id string, set game.Update) (bool, error) {
	change := bson.M{"$pull": bson.M{field: pullMatch(field, id)}}
	if len(set) > 0 {
		change["$set"] = bson.M(set)
	}
	// Match on the element so updatedAt is only touched when something is removed.
	filter := bson.M{"username": username}
	if plainIDs(field) {
		filter[field] = id
	} else {
		filter[field+".id"] = id
	}
	res, err := m.users.UpdateOne(ctx, filter, change)
	if err != nil {
		return false, fmt.Errorf("mongo update: %w", err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}
	n, err := m.users.CountDocuments(ctx, bson.M{"username": username}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongo count: %w", err)
	}
	if n == 0 {
		return false, game.ErrAccountNotFound
	}
	return false, nil
}

func (m *Mongo) Replace(ctx context.Context, doc game.Document) error {
	res, err := m.users.ReplaceOne(ctx, bson.M{"username": doc.Username}, doc)
	if err != nil {
		return fmt.Errorf("mongo replace: %w", err)
	}
	if res.MatchedCount == 0 {
		return game.ErrAccountNotFound
	}
	return nil
}

func (m *Mongo) Usernames(ctx context.Context) ([]string, error) {
	cur, err := m.users.Find(ctx, bson.M{}, options.Find().
		SetProjection(bson.M{"username": 1, "_id": 0}).
		SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)
	var out []string
	for cur.Next(ctx) {
		var row struct {
			Username string `bson:"username"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("mongo decode: %w", err)
		}
		out = append(out, row.Username)
	}
	return out, cur.Err()
}

func (m *Mongo) updateOne(ctx context.Context, username string, change bson.M) error {
	res, err := m.users.UpdateOne(ctx, bson.M{"username": username}, change)
	if err != nil {
		return fmt.Errorf("mongo update: %w", err)
	}
	if res.MatchedCount == 0 {
		return game.ErrAccountNotFound
	}
	return nil
}

// pullMatch matches array elements by their id field, or by value for arrays
// of plain ids.
func pullMatch(field, id string) any {
	if plainIDs(field) {
		return id
	}
	return bson.M{"id": id}
}

func plainIDs(field string) bool {
	return field == game.FieldOwnedAccessories || field == game.FieldPendingCatches
}

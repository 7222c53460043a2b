package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/hitoshi/pinkpulse/internal/database"
	"github.com/hitoshi/pinkpulse/internal/model"
)

// clinicDocument はclinicコレクションのドキュメント形式。
type clinicDocument struct {
	ID      bson.ObjectID `bson:"_id,omitempty"`
	Name    string        `bson:"name"`
	Address string        `bson:"address"`
	Date    time.Time     `bson:"date"`
	Time    string        `bson:"time"`
}

func (d *clinicDocument) toModel() model.Clinic {
	return model.Clinic{
		ID:      d.ID.Hex(),
		Name:    d.Name,
		Address: d.Address,
		Date:    model.DateOf(d.Date),
		Time:    d.Time,
	}
}

// MongoClinicRepo はMongoDBを使用したクリニックリポジトリ。
type MongoClinicRepo struct {
	coll *mongo.Collection
}

// NewMongoClinicRepo はMongoClinicRepoを生成する。
func NewMongoClinicRepo(db *mongo.Database) *MongoClinicRepo {
	return &MongoClinicRepo{coll: db.Collection(database.ClinicCollection)}
}

// List は全クリニックを_idの昇順（挿入順）で返す。
func (r *MongoClinicRepo) List(ctx context.Context) ([]model.Clinic, error) {
	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []clinicDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode clinics: %w", err)
	}

	clinics := make([]model.Clinic, 0, len(docs))
	for i := range docs {
		clinics = append(clinics, docs[i].toModel())
	}
	return clinics, nil
}

// compile-time interface check
var _ ClinicRepository = (*MongoClinicRepo)(nil)

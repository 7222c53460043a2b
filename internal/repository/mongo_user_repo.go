package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/hitoshi/pinkpulse/internal/database"
	"github.com/hitoshi/pinkpulse/internal/model"
)

// userDocument はusersコレクションのドキュメント形式。
type userDocument struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	Email          string        `bson:"email"`
	Password       string        `bson:"password"`
	WhatsappNumber string        `bson:"whatsappNumber"`
	DOB            time.Time     `bson:"dob"`
	CreatedAt      time.Time     `bson:"createdAt"`
}

func (d *userDocument) toModel() *model.User {
	return &model.User{
		ID:             d.ID.Hex(),
		Email:          d.Email,
		PasswordHash:   d.Password,
		WhatsappNumber: d.WhatsappNumber,
		DateOfBirth:    model.DateOf(d.DOB),
		CreatedAt:      d.CreatedAt,
	}
}

// MongoUserRepo はMongoDBを使用したユーザーリポジトリ。
type MongoUserRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoUserRepo はMongoUserRepoを生成する。
func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{
		coll: db.Collection(database.UsersCollection),
		now:  time.Now,
	}
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return doc.toModel(), nil
}

// Create はユーザーを作成する。重複はemailのユニークインデックスで検出する。
func (r *MongoUserRepo) Create(ctx context.Context, user *model.User) error {
	doc := userDocument{
		ID:             bson.NewObjectID(),
		Email:          user.Email,
		Password:       user.PasswordHash,
		WhatsappNumber: user.WhatsappNumber,
		DOB:            user.DateOfBirth.Time,
		CreatedAt:      r.now().UTC().Truncate(time.Millisecond),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return mapMongoInsertError(err)
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt = doc.CreatedAt
	return nil
}

// mapMongoInsertError は重複キーエラーをErrDuplicateEmailに変換する。
func mapMongoInsertError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	return fmt.Errorf("failed to insert user: %w", err)
}

// compile-time interface check
var _ UserRepository = (*MongoUserRepo)(nil)

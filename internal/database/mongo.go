package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Mongoのコレクション名
const (
	UsersCollection  = "users"
	ClinicCollection = "clinic"
)

// MongoStore はMongoDBクライアントと対象データベースをまとめたもの。
type MongoStore struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// OpenMongo はMongoDBに接続する。
// mongo.Connectは接続を確立しないため、実際の疎通確認にはPingContextを使用すること。
func OpenMongo(uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to open mongo client: %w", err)
	}

	return &MongoStore{
		Client: client,
		DB:     client.Database(dbName),
	}, nil
}

// PingContext はプライマリへの疎通を確認する。
// ヘルスチェックで*sql.DBと同じインターフェースとして扱う。
func (s *MongoStore) PingContext(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

// Close はクライアントを切断する。
func (s *MongoStore) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// EnsureMongoIndexes はusersコレクションのemailにユニークインデックスを作成する。
// 既に存在する場合は何もしない。重複メールの最終的な防止はこのインデックスが担う。
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create unique email index: %w", err)
	}
	return nil
}

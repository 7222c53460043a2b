package model

import "time"

// User は登録済みユーザーを表す。
// PasswordHashはレスポンスに含めない。
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	WhatsappNumber string    `json:"whatsappNumber"`
	DateOfBirth    Date      `json:"dob"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Clinic はクリニックの開催情報を表す。
// このサービスからは読み取りのみ行い、作成・更新は外部で行われる。
type Clinic struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Date    Date   `json:"date"`
	// Time は自由形式の文字列（例: "10:00 - 14:00"）。時刻型として解釈しない。
	Time string `json:"time"`
}

// TokenClaims はアクセストークンから復元した認証情報を表す。
type TokenClaims struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限区分を表す。
type Role string

const (
	// RoleUser は一般ユーザーを示す。
	RoleUser Role = "user"
	// RoleOrganizer はイベント主催者を示す。
	RoleOrganizer Role = "organizer"
)

// User はサービス利用ユーザーを表す。
// PasswordHashはメール＋パスワード登録のユーザーのみ保持する。
// GoogleIDは外部IdP（Google）経由で作成されたユーザーのみ保持する。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	GoogleID     string
	FirstName    string
	LastName     string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName は表示用のフルネームを返す。
func (u *User) DisplayName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Identity は検証済みベアラートークンから抽出した呼び出し元の本人情報を表す。
// 保護ルートのハンドラーはこの構造体のみを信頼する。
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   Role
}

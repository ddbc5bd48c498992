// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/eventman/internal/model"
)

// 参加登録・フィードバック送信で返される定義済みエラー。
// サービス層がAPIErrorへ変換する。
var (
	// ErrEventNotFound は対象イベントが存在しないことを示す。
	ErrEventNotFound = errors.New("event not found")
	// ErrCapacityExceeded はイベントが定員に達していることを示す。
	ErrCapacityExceeded = errors.New("event capacity exceeded")
	// ErrAlreadyRegistered は同一ユーザーの重複登録を示す。
	ErrAlreadyRegistered = errors.New("participant already registered")
	// ErrDuplicateEmail はメールアドレスの一意制約違反を示す。
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが登録済みの場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// ListEmails は全ユーザーのメールアドレスを返す。
	// 通知の一斉送信で宛先リストとして使用する。
	ListEmails(ctx context.Context) ([]string, error)
}

// EventRepository はイベントデータの永続化インターフェース。
// 参加者とフィードバックはイベントに埋め込まれたコレクションとして
// 常にイベントと一緒に読み書きする。
type EventRepository interface {
	// FindByID は指定IDのイベントを参加者・フィードバック込みで取得する。
	// 見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Event, error)

	// List は全イベントを参加者・フィードバック込みで開催日昇順に返す。
	List(ctx context.Context) ([]*model.Event, error)

	// Create はイベントを作成する。
	Create(ctx context.Context, event *model.Event) error

	// Update はイベントの可変フィールド（title, date, location, description, capacity）を
	// 置き換える。対象が存在しない場合はErrEventNotFoundを返す。
	Update(ctx context.Context, event *model.Event) error

	// Delete は指定IDのイベントを削除する。参加者・フィードバックはCASCADE削除される。
	// 対象が存在しない場合はErrEventNotFoundを返す。
	Delete(ctx context.Context, id string) error

	// AddParticipant は定員チェック・重複チェック・参加者追加を
	// 単一トランザクション内で行う。イベント行をFOR UPDATEでロックするため、
	// 最後の1席への同時登録が定員超過を起こすことはない。
	// 失敗時はErrEventNotFound、ErrCapacityExceeded、ErrAlreadyRegisteredのいずれかを返す。
	AddParticipant(ctx context.Context, eventID string, p *model.Participant) error

	// UpsertFeedback はフィードバックを(event_id, user_id)で冪等にUPSERTし、
	// 同一トランザクション内で平均評価を再計算して返す。
	// 再送信はratingのみ上書きし、初回送信時刻を保持する。
	// 対象イベントが存在しない場合はErrEventNotFoundを返す。
	UpsertFeedback(ctx context.Context, eventID, userID string, rating int) (float64, error)
}

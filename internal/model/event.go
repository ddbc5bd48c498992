package model

import "time"

// Event はイベントを表す。
// ParticipantsとFeedbackはイベントに埋め込まれたコレクションであり、
// イベント削除時に一緒に削除される。
// 不変条件: len(Participants) <= Capacity、参加者IDはイベント内で一意。
type Event struct {
	ID            string
	Title         string
	Date          time.Time
	Location      string
	Description   string
	Capacity      int
	AverageRating float64
	Participants  []Participant
	Feedback      []Feedback
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsFull は参加者数が定員に達しているかを返す。
func (e *Event) IsFull() bool {
	return len(e.Participants) >= e.Capacity
}

// Participant はイベントへの参加登録レコードを表す。
// IDはユーザーIDに紐づく。ユーザーごとイベントごとに1件のみ作成され、変更されない。
type Participant struct {
	ID           string
	Name         string
	Email        string
	RegisteredAt time.Time
}

// Feedback はイベントへの評価（1〜5）を表す。
// (イベント, ユーザー)の組につき1件のみ存在し、再送信は評価値を上書きする。
type Feedback struct {
	UserID      string
	Rating      int
	SubmittedAt time.Time
}

// 評価値の範囲。
const (
	MinRating = 1
	MaxRating = 5
)

// IsValidRating は評価値が[1,5]の範囲内かを返す。
func IsValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

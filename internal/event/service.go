// Package event はイベント管理のドメインロジックを提供する。
package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hitoshi/eventman/internal/metrics"
	"github.com/hitoshi/eventman/internal/model"
	"github.com/hitoshi/eventman/internal/repository"
)

// EventInput はイベント作成・更新の入力。
type EventInput struct {
	Title       string `validate:"required,max=200"`
	Date        string `validate:"required"`
	Location    string `validate:"required,max=200"`
	Description string `validate:"required"`
	Capacity    int    `validate:"required,min=1"`
}

// Service はイベント管理のサービス層。
// イベントCRUD、参加登録、フィードバック受付のビジネスロジックを提供する。
type Service struct {
	eventRepo repository.EventRepository
	metrics   metrics.MetricsCollector
	validate  *validator.Validate
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorはnilでもよい（メトリクス記録をスキップする）。
func NewService(eventRepo repository.EventRepository, collector metrics.MetricsCollector) *Service {
	return &Service{
		eventRepo: eventRepo,
		metrics:   collector,
		validate:  validator.New(),
	}
}

// Create は新しいイベントを作成する。
func (s *Service) Create(ctx context.Context, input EventInput) (*model.Event, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, model.NewValidationError(validationDetail(err))
	}

	date, err := parseEventDate(input.Date)
	if err != nil {
		return nil, model.NewValidationError("dateはRFC 3339形式で指定してください")
	}

	now := time.Now().UTC()
	event := &model.Event{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(input.Title),
		Date:        date,
		Location:    strings.TrimSpace(input.Location),
		Description: input.Description,
		Capacity:    input.Capacity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("イベントの作成に失敗しました: %w", err)
	}

	return s.Get(ctx, event.ID)
}

// Get はイベントを参加者・フィードバック付きで取得する。
func (s *Service) Get(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	if event == nil {
		return nil, model.NewEventNotFoundError(eventID)
	}
	return event, nil
}

// List はすべてのイベントを返す。
// 1件も存在しない場合はNO_EVENTSエラーを返す。
func (s *Service) List(ctx context.Context) ([]*model.Event, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	if len(events) == 0 {
		return nil, model.NewNoEventsError()
	}
	return events, nil
}

// Update は既存イベントの属性を更新する。
// 参加者・フィードバック・平均評価は変更されない。
func (s *Service) Update(ctx context.Context, eventID string, input EventInput) (*model.Event, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, model.NewValidationError(validationDetail(err))
	}

	date, err := parseEventDate(input.Date)
	if err != nil {
		return nil, model.NewValidationError("dateはRFC 3339形式で指定してください")
	}

	event := &model.Event{
		ID:          eventID,
		Title:       strings.TrimSpace(input.Title),
		Date:        date,
		Location:    strings.TrimSpace(input.Location),
		Description: input.Description,
		Capacity:    input.Capacity,
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, model.NewEventNotFoundError(eventID)
		}
		return nil, fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}

	return s.Get(ctx, eventID)
}

// Delete はイベントと埋め込まれた参加者・フィードバックを削除する。
func (s *Service) Delete(ctx context.Context, eventID string) error {
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return model.NewEventNotFoundError(eventID)
		}
		return fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	return nil
}

// Register は認証済みユーザーをイベントに参加登録する。
// 定員チェックと重複チェックは単一トランザクション内で原子的に行われる。
func (s *Service) Register(ctx context.Context, eventID string, identity *model.Identity) (*model.Event, error) {
	participant := &model.Participant{
		ID:           identity.UserID,
		Name:         identity.Name,
		Email:        identity.Email,
		RegisteredAt: time.Now(),
	}

	if err := s.eventRepo.AddParticipant(ctx, eventID, participant); err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			s.recordRegistrationRejected("event_not_found")
			return nil, model.NewEventNotFoundError(eventID)
		case errors.Is(err, repository.ErrCapacityExceeded):
			s.recordRegistrationRejected("capacity_exceeded")
			return nil, model.NewCapacityExceededError()
		case errors.Is(err, repository.ErrAlreadyRegistered):
			s.recordRegistrationRejected("already_registered")
			return nil, model.NewAlreadyRegisteredError()
		default:
			return nil, fmt.Errorf("参加登録に失敗しました: %w", err)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordRegistrationAccepted()
	}

	return s.Get(ctx, eventID)
}

// SubmitFeedback はイベントへの評価を受け付け、更新後の平均評価を返す。
// 同一ユーザーの再送信は評価値を上書きする。
func (s *Service) SubmitFeedback(ctx context.Context, eventID, userID string, rating int) (float64, error) {
	if !model.IsValidRating(rating) {
		return 0, model.NewInvalidRatingError(rating)
	}

	average, err := s.eventRepo.UpsertFeedback(ctx, eventID, userID, rating)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return 0, model.NewEventNotFoundError(eventID)
		}
		return 0, fmt.Errorf("フィードバックの登録に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordFeedbackSubmitted()
	}

	return average, nil
}

func (s *Service) recordRegistrationRejected(reason string) {
	if s.metrics != nil {
		s.metrics.RecordRegistrationRejected(reason)
	}
}

// parseEventDate は開催日時の文字列をパースする。
// RFC 3339形式と日付のみ(YYYY-MM-DD)の形式を受け付ける。
func parseEventDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// validationDetail はvalidatorのエラーをフィールド名付きの詳細文字列に変換する。
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	details := make([]string, len(verrs))
	for i, fe := range verrs {
		details[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
	}
	return strings.Join(details, ", ")
}

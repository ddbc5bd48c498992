package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/eventman/internal/model"
	"github.com/hitoshi/eventman/internal/repository"
)

// mockEventRepo はテスト用のEventRepository実装。
type mockEventRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.Event, error)
	listFn           func(ctx context.Context) ([]*model.Event, error)
	createFn         func(ctx context.Context, event *model.Event) error
	updateFn         func(ctx context.Context, event *model.Event) error
	deleteFn         func(ctx context.Context, id string) error
	addParticipantFn func(ctx context.Context, eventID string, p *model.Participant) error
	upsertFeedbackFn func(ctx context.Context, eventID, userID string, rating int) (float64, error)
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockEventRepo) List(ctx context.Context) ([]*model.Event, error) {
	return m.listFn(ctx)
}

func (m *mockEventRepo) Create(ctx context.Context, event *model.Event) error {
	return m.createFn(ctx, event)
}

func (m *mockEventRepo) Update(ctx context.Context, event *model.Event) error {
	return m.updateFn(ctx, event)
}

func (m *mockEventRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockEventRepo) AddParticipant(ctx context.Context, eventID string, p *model.Participant) error {
	return m.addParticipantFn(ctx, eventID, p)
}

func (m *mockEventRepo) UpsertFeedback(ctx context.Context, eventID, userID string, rating int) (float64, error) {
	return m.upsertFeedbackFn(ctx, eventID, userID, rating)
}

func assertErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("code = %s, want %s", apiErr.Code, wantCode)
	}
}

func validInput() EventInput {
	return EventInput{
		Title:       "Go Conference",
		Date:        "2026-10-01T10:00:00Z",
		Location:    "Tokyo",
		Description: "Annual Go conference",
		Capacity:    100,
	}
}

func TestCreate_Success(t *testing.T) {
	var created *model.Event
	repo := &mockEventRepo{
		createFn: func(ctx context.Context, event *model.Event) error {
			created = event
			return nil
		},
		findByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			return created, nil
		},
	}

	svc := NewService(repo, nil)
	event, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if event.ID == "" {
		t.Error("event ID should be generated")
	}
	if event.Title != "Go Conference" {
		t.Errorf("title = %s, want Go Conference", event.Title)
	}
	if event.Capacity != 100 {
		t.Errorf("capacity = %d, want 100", event.Capacity)
	}
	wantDate := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	if !event.Date.Equal(wantDate) {
		t.Errorf("date = %v, want %v", event.Date, wantDate)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	repo := &mockEventRepo{
		createFn: func(ctx context.Context, event *model.Event) error {
			t.Fatal("Create should not be called")
			return nil
		},
	}
	svc := NewService(repo, nil)

	tests := []struct {
		name   string
		mutate func(*EventInput)
	}{
		{"タイトルなし", func(in *EventInput) { in.Title = "" }},
		{"日付なし", func(in *EventInput) { in.Date = "" }},
		{"場所なし", func(in *EventInput) { in.Location = "" }},
		{"説明なし", func(in *EventInput) { in.Description = "" }},
		{"定員ゼロ", func(in *EventInput) { in.Capacity = 0 }},
		{"定員負数", func(in *EventInput) { in.Capacity = -5 }},
		{"不正な日付", func(in *EventInput) { in.Date = "next tuesday" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)
			_, err := svc.Create(context.Background(), input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			assertErrorCode(t, err, model.ErrCodeValidation)
		})
	}
}

func TestCreate_DateOnlyFormat(t *testing.T) {
	repo := &mockEventRepo{
		createFn: func(ctx context.Context, event *model.Event) error { return nil },
		findByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			return &model.Event{ID: id}, nil
		},
	}
	svc := NewService(repo, nil)

	input := validInput()
	input.Date = "2026-10-01"
	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Errorf("date-only format should be accepted: %v", err)
	}
}

func TestList_NoEvents(t *testing.T) {
	repo := &mockEventRepo{
		listFn: func(ctx context.Context) ([]*model.Event, error) {
			return []*model.Event{}, nil
		},
	}
	svc := NewService(repo, nil)

	_, err := svc.List(context.Background())
	if err == nil {
		t.Fatal("expected NO_EVENTS error")
	}
	assertErrorCode(t, err, model.ErrCodeNoEvents)
}

func TestUpdate_NotFound(t *testing.T) {
	repo := &mockEventRepo{
		updateFn: func(ctx context.Context, event *model.Event) error {
			return repository.ErrEventNotFound
		},
	}
	svc := NewService(repo, nil)

	_, err := svc.Update(context.Background(), "missing", validInput())
	if err == nil {
		t.Fatal("expected error")
	}
	assertErrorCode(t, err, model.ErrCodeEventNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockEventRepo{
		deleteFn: func(ctx context.Context, id string) error {
			return repository.ErrEventNotFound
		},
	}
	svc := NewService(repo, nil)

	err := svc.Delete(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	assertErrorCode(t, err, model.ErrCodeEventNotFound)
}

func TestRegister_Success(t *testing.T) {
	identity := &model.Identity{
		UserID: "user-1",
		Name:   "Taro Yamada",
		Email:  "taro@example.com",
		Role:   model.RoleUser,
	}

	var gotParticipant *model.Participant
	repo := &mockEventRepo{
		addParticipantFn: func(ctx context.Context, eventID string, p *model.Participant) error {
			gotParticipant = p
			return nil
		},
		findByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			return &model.Event{
				ID:       id,
				Capacity: 10,
				Participants: []model.Participant{
					{ID: "user-1", Name: "Taro Yamada", Email: "taro@example.com"},
				},
			}, nil
		},
	}
	svc := NewService(repo, nil)

	event, err := svc.Register(context.Background(), "event-1", identity)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if gotParticipant.ID != "user-1" || gotParticipant.Email != "taro@example.com" {
		t.Errorf("participant = %+v, want identity fields", gotParticipant)
	}
	if len(event.Participants) != 1 {
		t.Errorf("participants = %d, want 1", len(event.Participants))
	}
}

func TestRegister_RepositoryErrors(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		wantCode string
	}{
		{"イベント未検出", repository.ErrEventNotFound, model.ErrCodeEventNotFound},
		{"定員超過", repository.ErrCapacityExceeded, model.ErrCodeCapacityExceeded},
		{"重複登録", repository.ErrAlreadyRegistered, model.ErrCodeAlreadyRegistered},
	}

	identity := &model.Identity{UserID: "user-1", Role: model.RoleUser}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockEventRepo{
				addParticipantFn: func(ctx context.Context, eventID string, p *model.Participant) error {
					return tt.repoErr
				},
			}
			svc := NewService(repo, nil)

			_, err := svc.Register(context.Background(), "event-1", identity)
			if err == nil {
				t.Fatal("expected error")
			}
			assertErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestSubmitFeedback_Success(t *testing.T) {
	repo := &mockEventRepo{
		upsertFeedbackFn: func(ctx context.Context, eventID, userID string, rating int) (float64, error) {
			if rating != 4 {
				t.Errorf("rating = %d, want 4", rating)
			}
			return 3.5, nil
		},
	}
	svc := NewService(repo, nil)

	avg, err := svc.SubmitFeedback(context.Background(), "event-1", "user-1", 4)
	if err != nil {
		t.Fatalf("SubmitFeedback failed: %v", err)
	}
	if avg != 3.5 {
		t.Errorf("average = %v, want 3.5", avg)
	}
}

func TestSubmitFeedback_InvalidRating(t *testing.T) {
	repo := &mockEventRepo{
		upsertFeedbackFn: func(ctx context.Context, eventID, userID string, rating int) (float64, error) {
			t.Fatal("UpsertFeedback should not be called")
			return 0, nil
		},
	}
	svc := NewService(repo, nil)

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := svc.SubmitFeedback(context.Background(), "event-1", "user-1", rating)
		if err == nil {
			t.Fatalf("rating %d: expected error", rating)
		}
		assertErrorCode(t, err, model.ErrCodeInvalidRating)
	}
}

func TestSubmitFeedback_EventNotFound(t *testing.T) {
	repo := &mockEventRepo{
		upsertFeedbackFn: func(ctx context.Context, eventID, userID string, rating int) (float64, error) {
			return 0, repository.ErrEventNotFound
		},
	}
	svc := NewService(repo, nil)

	_, err := svc.SubmitFeedback(context.Background(), "missing", "user-1", 3)
	if err == nil {
		t.Fatal("expected error")
	}
	assertErrorCode(t, err, model.ErrCodeEventNotFound)
}

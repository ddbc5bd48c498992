package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/eventman/internal/model"
)

// mockEventRepo はテスト用のEventRepository実装。
type mockEventRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Event, error)
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockEventRepo) List(ctx context.Context) ([]*model.Event, error) { return nil, nil }

func (m *mockEventRepo) Create(ctx context.Context, event *model.Event) error { return nil }

func (m *mockEventRepo) Update(ctx context.Context, event *model.Event) error { return nil }

func (m *mockEventRepo) Delete(ctx context.Context, id string) error { return nil }

func (m *mockEventRepo) AddParticipant(ctx context.Context, eventID string, p *model.Participant) error {
	return nil
}

func (m *mockEventRepo) UpsertFeedback(ctx context.Context, eventID, userID string, rating int) (float64, error) {
	return 0, nil
}

// mockGenerator はテスト用のContentGenerator実装。
type mockGenerator struct {
	generateFn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return m.generateFn(ctx, prompt)
}

func testEvent() *model.Event {
	return &model.Event{
		ID:          "event-1",
		Title:       "Go Conference",
		Date:        time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC),
		Location:    "Tokyo",
		Description: "Annual Go conference",
		Capacity:    100,
		Participants: []model.Participant{
			{ID: "u1", Name: "Taro", Email: "taro@example.com"},
			{ID: "u2", Name: "Hanako", Email: "hanako@example.com"},
		},
	}
}

func TestGenerate_Success(t *testing.T) {
	repo := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			return testEvent(), nil
		},
	}

	var gotPrompt string
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, prompt string) (string, error) {
			gotPrompt = prompt
			return "Post-Event Summary Report ...", nil
		},
	}

	svc := NewService(repo, gen, nil, 30*time.Second)
	text, err := svc.Generate(context.Background(), "event-1", "2 hours")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text == "" {
		t.Error("report text should not be empty")
	}

	// プロンプトにイベントスナップショットが反映されていること
	for _, want := range []string{
		"Name of Event: Go Conference",
		"Location of Event: Tokyo",
		"Number of Persons Attending: 2",
		"Total Capacity: 100",
		"Sponsoring Organization(s): Event Management Team",
		"The event lasted for 2 hours.",
	} {
		if !strings.Contains(gotPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerate_DefaultDuration(t *testing.T) {
	repo := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			return testEvent(), nil
		},
	}

	var gotPrompt string
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, prompt string) (string, error) {
			gotPrompt = prompt
			return "report", nil
		},
	}

	svc := NewService(repo, gen, nil, 0)
	if _, err := svc.Generate(context.Background(), "event-1", ""); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(gotPrompt, "The event lasted for Not specified.") {
		t.Error("prompt should use default duration when unspecified")
	}
}

func TestGenerate_EventNotFound(t *testing.T) {
	repo := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			return nil, nil
		},
	}
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, prompt string) (string, error) {
			t.Fatal("GenerateContent should not be called")
			return "", nil
		},
	}

	svc := NewService(repo, gen, nil, 0)
	_, err := svc.Generate(context.Background(), "missing", "")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEventNotFound {
		t.Errorf("error = %v, want EVENT_NOT_FOUND", err)
	}
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	repo := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			return testEvent(), nil
		},
	}
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}

	svc := NewService(repo, gen, nil, 0)
	_, err := svc.Generate(context.Background(), "event-1", "")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeReportGeneration {
		t.Errorf("error = %v, want REPORT_GENERATION_FAILED", err)
	}
	if !strings.Contains(apiErr.Message, "quota exceeded") {
		t.Errorf("message should include upstream error: %s", apiErr.Message)
	}
}

package report

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/eventman/internal/metrics"
	"github.com/hitoshi/eventman/internal/model"
	"github.com/hitoshi/eventman/internal/repository"
)

// ContentGenerator はプロンプトからテキストを生成するインターフェース。
// Clientの部分集合として定義する。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Service はイベント報告書生成のサービス層。
type Service struct {
	eventRepo repository.EventRepository
	generator ContentGenerator
	metrics   metrics.MetricsCollector
	timeout   time.Duration
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorはnilでもよい。
func NewService(
	eventRepo repository.EventRepository,
	generator ContentGenerator,
	collector metrics.MetricsCollector,
	timeout time.Duration,
) *Service {
	return &Service{
		eventRepo: eventRepo,
		generator: generator,
		metrics:   collector,
		timeout:   timeout,
	}
}

// Generate は指定イベントの開催後報告書を生成する。
// durationが空の場合は未指定として扱う。
// 生成AIサービスの失敗はREPORT_GENERATION_FAILEDエラーとして返す。
func (s *Service) Generate(ctx context.Context, eventID, duration string) (string, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	if event == nil {
		return "", model.NewEventNotFoundError(eventID)
	}

	prompt := buildPrompt(event, duration)

	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.generator.GenerateContent(genCtx, prompt)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordReportLatency(elapsed)
		s.metrics.RecordReportGenerated(err == nil)
	}

	if err != nil {
		return "", model.NewReportGenerationError(err.Error())
	}

	return text, nil
}

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/eventman/internal/metrics"
	"github.com/hitoshi/eventman/internal/repository"
	"github.com/hitoshi/eventman/internal/security"
)

// 通知メールの件名。
const notificationSubject = "Notification Regarding Event"

// sendTimeout はバックグラウンド送信全体のタイムアウト。
const sendTimeout = 2 * time.Minute

// Service は全ユーザーへの通知メール配信のサービス層。
// 送信はバックグラウンドで行われ、失敗はログに記録されるのみで
// 呼び出し元には伝播しない。
type Service struct {
	userRepo  repository.UserRepository
	mailer    Mailer
	sanitizer security.MessageSanitizerService
	metrics   metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorはnilでもよい。
func NewService(
	userRepo repository.UserRepository,
	mailer Mailer,
	sanitizer security.MessageSanitizerService,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		userRepo:  userRepo,
		mailer:    mailer,
		sanitizer: sanitizer,
		metrics:   collector,
	}
}

// NotifyAll は登録済み全ユーザーへ通知メールの送信を開始する。
// 宛先一覧の取得のみ同期的に行い、送信自体はゴルーチンに委ねて即座に戻る。
func (s *Service) NotifyAll(ctx context.Context, message string) error {
	emails, err := s.userRepo.ListEmails(ctx)
	if err != nil {
		return fmt.Errorf("宛先一覧の取得に失敗しました: %w", err)
	}

	if len(emails) == 0 {
		slog.Info("no recipients for notification")
		return nil
	}

	// メッセージをサニタイズしてHTML本文とテキスト本文を組み立てる
	safeHTML := s.sanitizer.Sanitize(message)
	htmlBody := fmt.Sprintf("<b>%s</b>", safeHTML)
	textBody := htmlToPlainText(safeHTML)

	go s.deliver(emails, htmlBody, textBody)

	return nil
}

// deliver はバックグラウンドで通知メールを送信する。
// リクエストコンテキストから独立したタイムアウト付きコンテキストを使用する。
func (s *Service) deliver(emails []string, htmlBody, textBody string) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	err := s.mailer.Send(ctx, emails, notificationSubject, textBody, htmlBody)
	if err != nil {
		slog.Error("notification email delivery failed",
			slog.Int("recipients", len(emails)),
			slog.String("error", err.Error()),
		)
	} else {
		slog.Info("notification email sent",
			slog.Int("recipients", len(emails)),
		)
	}

	if s.metrics != nil {
		for range emails {
			s.metrics.RecordNotificationEmail(err == nil)
		}
	}
}

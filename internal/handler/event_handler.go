// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/eventman/internal/event"
	"github.com/hitoshi/eventman/internal/middleware"
	"github.com/hitoshi/eventman/internal/model"
)

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	// Create は新しいイベントを作成する。
	Create(ctx context.Context, input event.EventInput) (*model.Event, error)
	// List は全イベントを返す。1件もない場合はNO_EVENTSエラーを返す。
	List(ctx context.Context) ([]*model.Event, error)
	// Update は既存イベントの属性を更新する。
	Update(ctx context.Context, eventID string, input event.EventInput) (*model.Event, error)
	// Delete はイベントを削除する。
	Delete(ctx context.Context, eventID string) error
	// Register は認証済みユーザーをイベントに参加登録する。
	Register(ctx context.Context, eventID string, identity *model.Identity) (*model.Event, error)
	// SubmitFeedback は評価を受け付け、更新後の平均評価を返す。
	SubmitFeedback(ctx context.Context, eventID, userID string, rating int) (float64, error)
}

// NotifyServiceInterface は通知ハンドラーが必要とするサービスインターフェース。
type NotifyServiceInterface interface {
	// NotifyAll は登録済み全ユーザーへの通知メール送信を開始する。
	NotifyAll(ctx context.Context, message string) error
}

// ReportServiceInterface は報告書ハンドラーが必要とするサービスインターフェース。
type ReportServiceInterface interface {
	// Generate は指定イベントの開催後報告書を生成する。
	Generate(ctx context.Context, eventID, duration string) (string, error)
}

// EventHandler はイベント管理のHTTPハンドラー。
type EventHandler struct {
	events EventServiceInterface
	notify NotifyServiceInterface
	report ReportServiceInterface
}

// NewEventHandler はEventHandlerを生成する。
func NewEventHandler(events EventServiceInterface, notify NotifyServiceInterface, report ReportServiceInterface) *EventHandler {
	return &EventHandler{
		events: events,
		notify: notify,
		report: report,
	}
}

// eventRequest はイベント作成・更新リクエストのボディ。
type eventRequest struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
}

// eventResponse はイベント情報のAPIレスポンス。
type eventResponse struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Date          time.Time             `json:"date"`
	Location      string                `json:"location"`
	Description   string                `json:"description"`
	Capacity      int                   `json:"capacity"`
	AverageRating float64               `json:"averageRating"`
	Participants  []participantResponse `json:"participants"`
	Feedback      []feedbackResponse    `json:"feedback"`
}

// participantResponse は参加者情報のAPIレスポンス。
type participantResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// feedbackResponse はフィードバック情報のAPIレスポンス。
type feedbackResponse struct {
	UserID      string    `json:"userId"`
	Rating      int       `json:"rating"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// feedbackRequest はフィードバック送信リクエストのボディ。
// UserIDフィールドは互換性のために受理するが、評価者は
// 検証済みベアラートークンの本人情報で決定される。
type feedbackRequest struct {
	UserID string `json:"userId"`
	Rating int    `json:"rating"`
}

// notifyRequest は通知送信リクエストのボディ。
type notifyRequest struct {
	Message string `json:"message"`
}

// reportRequest は報告書生成リクエストのボディ。
type reportRequest struct {
	Duration string `json:"duration"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// Create はイベント作成を処理する。
// POST /event/add
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	created, err := h.events.Create(r.Context(), toEventInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toEventResponse(created))
}

// List は全イベントの一覧を返す。
// GET /event/get
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]eventResponse, len(events))
	for i, ev := range events {
		responses[i] = toEventResponse(ev)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// Update はイベント更新を処理する。
// PUT /event/update/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	updated, err := h.events.Update(r.Context(), eventID, toEventInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toEventResponse(updated))
}

// Delete はイベント削除を処理する。
// DELETE /event/delete/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	if err := h.events.Delete(r.Context(), eventID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"id": eventID})
}

// Register は参加登録を処理する。
// POST /event/register/{id}
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	eventID := chi.URLParam(r, "id")

	updated, err := h.events.Register(r.Context(), eventID, identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 登録された参加者レコードをエコーバックする
	var registered *participantResponse
	for _, p := range updated.Participants {
		if p.ID == identity.UserID {
			resp := toParticipantResponse(p)
			registered = &resp
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Participant *participantResponse `json:"participant"`
		Event       eventResponse        `json:"event"`
	}{
		Participant: registered,
		Event:       toEventResponse(updated),
	})
}

// SubmitFeedback はフィードバック送信を処理する。
// POST /event/{id}/feedback
func (h *EventHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	eventID := chi.URLParam(r, "id")

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	average, err := h.events.SubmitFeedback(r.Context(), eventID, identity.UserID, req.Rating)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]float64{"averageRating": average})
}

// Notify は全ユーザーへの通知メール送信を処理する。
// POST /event/{id}/notify
func (h *EventHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	// 送信はバックグラウンドで行われるため、宛先取得エラー以外は常に200を返す
	if err := h.notify.NotifyAll(r.Context(), req.Message); err != nil {
		slog.Error("notification dispatch failed", slog.String("error", err.Error()))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"msg": "notification dispatched"})
}

// GenerateReport は開催後報告書の生成を処理する。
// POST /event/report/{id}
func (h *EventHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.IdentityFromContext(r.Context()); err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	eventID := chi.URLParam(r, "id")

	// ボディは省略可能（durationのみ任意指定）
	var req reportRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	text, err := h.report.Generate(r.Context(), eventID, req.Duration)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"msg":    "Event report generated successfully",
		"report": text,
	})
}

// --- ヘルパー関数 ---

// toEventInput はAPIリクエストからサービス層の入力に変換する。
func toEventInput(req eventRequest) event.EventInput {
	return event.EventInput{
		Title:       req.Title,
		Date:        req.Date,
		Location:    req.Location,
		Description: req.Description,
		Capacity:    req.Capacity,
	}
}

// toEventResponse はmodel.EventからAPIレスポンスに変換する。
func toEventResponse(ev *model.Event) eventResponse {
	participants := make([]participantResponse, len(ev.Participants))
	for i, p := range ev.Participants {
		participants[i] = toParticipantResponse(p)
	}

	feedback := make([]feedbackResponse, len(ev.Feedback))
	for i, f := range ev.Feedback {
		feedback[i] = feedbackResponse{
			UserID:      f.UserID,
			Rating:      f.Rating,
			SubmittedAt: f.SubmittedAt,
		}
	}

	return eventResponse{
		ID:            ev.ID,
		Title:         ev.Title,
		Date:          ev.Date,
		Location:      ev.Location,
		Description:   ev.Description,
		Capacity:      ev.Capacity,
		AverageRating: ev.AverageRating,
		Participants:  participants,
		Feedback:      feedback,
	}
}

// toParticipantResponse はmodel.ParticipantからAPIレスポンスに変換する。
func toParticipantResponse(p model.Participant) participantResponse {
	return participantResponse{
		ID:           p.ID,
		Name:         p.Name,
		Email:        p.Email,
		RegisteredAt: p.RegisteredAt,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidRating:
		return http.StatusBadRequest
	case model.ErrCodeCapacityExceeded, model.ErrCodeAlreadyRegistered:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeEventNotFound, model.ErrCodeNoEvents, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateEmail:
		return http.StatusConflict
	case model.ErrCodeReportGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

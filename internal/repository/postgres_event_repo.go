package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/eventman/internal/model"
)

// PostgresEventRepo はPostgreSQLを使用したイベントリポジトリ。
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

// FindByID は指定IDのイベントを参加者・フィードバック込みで取得する。
// 見つからない場合はnilを返す。
func (r *PostgresEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	event := &model.Event{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, date, location, description, capacity, average_rating, created_at, updated_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(
		&event.ID, &event.Title, &event.Date, &event.Location, &event.Description,
		&event.Capacity, &event.AverageRating, &event.CreatedAt, &event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}

	participants, err := r.loadParticipants(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	event.Participants = participants[id]

	feedback, err := r.loadFeedback(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	event.Feedback = feedback[id]

	return event, nil
}

// List は全イベントを参加者・フィードバック込みで開催日昇順に返す。
func (r *PostgresEventRepo) List(ctx context.Context) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, date, location, description, capacity, average_rating, created_at, updated_at
		 FROM events ORDER BY date`,
	)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	var ids []string
	for rows.Next() {
		event := &model.Event{}
		if err := rows.Scan(
			&event.ID, &event.Title, &event.Date, &event.Location, &event.Description,
			&event.Capacity, &event.AverageRating, &event.CreatedAt, &event.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("イベント行の読み取りに失敗しました: %w", err)
		}
		events = append(events, event)
		ids = append(ids, event.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("イベント一覧の走査に失敗しました: %w", err)
	}

	if len(events) == 0 {
		return nil, nil
	}

	participants, err := r.loadParticipants(ctx, ids)
	if err != nil {
		return nil, err
	}
	feedback, err := r.loadFeedback(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		event.Participants = participants[event.ID]
		event.Feedback = feedback[event.ID]
	}

	return events, nil
}

// Create はイベントを作成する。
func (r *PostgresEventRepo) Create(ctx context.Context, event *model.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, title, date, location, description, capacity, average_rating, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.Title, event.Date, event.Location, event.Description,
		event.Capacity, event.AverageRating, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("イベントの作成に失敗しました: %w", err)
	}

	return nil
}

// Update はイベントの可変フィールドを置き換える。
// 対象が存在しない場合はErrEventNotFoundを返す。
func (r *PostgresEventRepo) Update(ctx context.Context, event *model.Event) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE events
		 SET title = $2, date = $3, location = $4, description = $5, capacity = $6, updated_at = now()
		 WHERE id = $1`,
		event.ID, event.Title, event.Date, event.Location, event.Description, event.Capacity,
	)
	if err != nil {
		return fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

// Delete は指定IDのイベントを削除する。
// 参加者・フィードバックはCASCADE削除される。
// 対象が存在しない場合はErrEventNotFoundを返す。
func (r *PostgresEventRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

// AddParticipant は定員チェック・重複チェック・参加者追加を
// 単一トランザクション内で行う。
// イベント行をFOR UPDATEでロックし、同一イベントへの登録を直列化することで、
// チェックと追加の間に他の登録が割り込むことを防ぐ。
func (r *PostgresEventRepo) AddParticipant(ctx context.Context, eventID string, p *model.Participant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// イベント行のロック取得。以降のチェックはこのロック下で行う。
	var capacity int
	err = tx.QueryRowContext(ctx,
		`SELECT capacity FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&capacity)
	if err == sql.ErrNoRows {
		return ErrEventNotFound
	}
	if err != nil {
		return fmt.Errorf("イベントのロック取得に失敗しました: %w", err)
	}

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT count(*) FROM participants WHERE event_id = $1`,
		eventID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("参加者数の取得に失敗しました: %w", err)
	}
	if count >= capacity {
		return ErrCapacityExceeded
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM participants WHERE event_id = $1 AND user_id = $2)`,
		eventID, p.ID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("重複登録チェックに失敗しました: %w", err)
	}
	if exists {
		return ErrAlreadyRegistered
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO participants (event_id, user_id, name, email, registered_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		eventID, p.ID, p.Name, p.Email, p.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("参加者の追加に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpsertFeedback はフィードバックを(event_id, user_id)で冪等にUPSERTし、
// 同一トランザクション内で平均評価（小数第1位で丸め）を再計算して返す。
// 再送信はratingのみ上書きし、submitted_atは初回送信時刻を保持する。
func (r *PostgresEventRepo) UpsertFeedback(ctx context.Context, eventID, userID string, rating int) (float64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 平均の再計算が他の送信と交錯しないよう、イベント行をロックする。
	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return 0, ErrEventNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("イベントのロック取得に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO feedback (event_id, user_id, rating, submitted_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (event_id, user_id) DO UPDATE SET rating = EXCLUDED.rating`,
		eventID, userID, rating,
	)
	if err != nil {
		return 0, fmt.Errorf("フィードバックの保存に失敗しました: %w", err)
	}

	var average float64
	err = tx.QueryRowContext(ctx,
		`SELECT round(avg(rating)::numeric, 1)::double precision FROM feedback WHERE event_id = $1`,
		eventID,
	).Scan(&average)
	if err != nil {
		return 0, fmt.Errorf("平均評価の計算に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE events SET average_rating = $2, updated_at = now() WHERE id = $1`,
		eventID, average,
	)
	if err != nil {
		return 0, fmt.Errorf("平均評価の更新に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return average, nil
}

// loadParticipants は複数イベントの参加者をイベントIDごとにまとめて取得する。
func (r *PostgresEventRepo) loadParticipants(ctx context.Context, eventIDs []string) (map[string][]model.Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id, user_id, name, email, registered_at
		 FROM participants
		 WHERE event_id = ANY ($1)
		 ORDER BY registered_at`,
		pq.Array(eventIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("参加者の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]model.Participant, len(eventIDs))
	for rows.Next() {
		var eventID string
		var p model.Participant
		if err := rows.Scan(&eventID, &p.ID, &p.Name, &p.Email, &p.RegisteredAt); err != nil {
			return nil, fmt.Errorf("参加者行の読み取りに失敗しました: %w", err)
		}
		result[eventID] = append(result[eventID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("参加者の走査に失敗しました: %w", err)
	}

	return result, nil
}

// loadFeedback は複数イベントのフィードバックをイベントIDごとにまとめて取得する。
func (r *PostgresEventRepo) loadFeedback(ctx context.Context, eventIDs []string) (map[string][]model.Feedback, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id, user_id, rating, submitted_at
		 FROM feedback
		 WHERE event_id = ANY ($1)
		 ORDER BY submitted_at`,
		pq.Array(eventIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("フィードバックの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]model.Feedback, len(eventIDs))
	for rows.Next() {
		var eventID string
		var f model.Feedback
		if err := rows.Scan(&eventID, &f.UserID, &f.Rating, &f.SubmittedAt); err != nil {
			return nil, fmt.Errorf("フィードバック行の読み取りに失敗しました: %w", err)
		}
		result[eventID] = append(result[eventID], f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("フィードバックの走査に失敗しました: %w", err)
	}

	return result, nil
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)

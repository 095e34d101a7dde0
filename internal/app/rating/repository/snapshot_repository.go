package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"ratingwatch/internal/app/rating/entity"
	"ratingwatch/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool - минимальная поверхность pgxpool.Pool, нужная репозиторию.
// Позволяет подставить pgxmock в тестах.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// snapshotRepository реализует SnapshotRepository поверх PostgreSQL
type snapshotRepository struct {
	db PgxPool
}

// NewSnapshotRepository создает новый репозиторий снапшотов рейтинга
func NewSnapshotRepository(db PgxPool) SnapshotRepository {
	return &snapshotRepository{db: db}
}

// EnsureSchema идемпотентно создает таблицу и индекс по timestamp.
// Вызывается перед каждой операцией чтения/записи, чтобы свежая
// пустая база автоматически получала структуру при первом обращении.
func (r *snapshotRepository) EnsureSchema(ctx context.Context) error {
	createTable := `
		CREATE TABLE IF NOT EXISTS rating_snapshots (
			id SERIAL PRIMARY KEY,
			score DECIMAL(3,1) NOT NULL,
			review_count INTEGER,
			max_score INTEGER DEFAULT 5,
			reviews JSONB NOT NULL,
			timestamp TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			url TEXT,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)
	`

	if _, err := r.db.Exec(ctx, createTable); err != nil {
		metrics.RecordDbError("rating-service", "ensure_schema")
		return &StorageError{Op: "ensure_schema", Err: err}
	}

	createIndex := `
		CREATE INDEX IF NOT EXISTS idx_rating_snapshots_timestamp
		ON rating_snapshots (timestamp DESC)
	`

	if _, err := r.db.Exec(ctx, createIndex); err != nil {
		metrics.RecordDbError("rating-service", "ensure_schema")
		return &StorageError{Op: "ensure_schema", Err: err}
	}

	return nil
}

// Save добавляет снапшот новой строкой; существующие строки не трогаются
func (r *snapshotRepository) Save(ctx context.Context, snapshot *entity.RatingSnapshot) error {
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}

	timer := metrics.NewDbTimer("rating-service", "save", "rating_snapshots")

	reviews, err := json.Marshal(snapshot.Reviews)
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}

	maxScore := snapshot.MaxScore
	if maxScore == 0 {
		maxScore = 5
	}

	query := `
		INSERT INTO rating_snapshots (score, review_count, max_score, reviews, timestamp, url)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.Exec(
		ctx, query,
		snapshot.Score, snapshot.ReviewCount, maxScore, reviews, snapshot.Timestamp, snapshot.URL,
	)

	if err != nil {
		metrics.RecordDbError("rating-service", "save")
		return &StorageError{Op: "save", Err: err}
	}

	timer.ObserveDuration()

	return nil
}

// Latest возвращает самую свежую строку по timestamp.
// Пустое хранилище - это (nil, nil), а не ошибка.
func (r *snapshotRepository) Latest(ctx context.Context) (*entity.RatingSnapshot, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	timer := metrics.NewDbTimer("rating-service", "latest", "rating_snapshots")

	query := `
		SELECT score::text, review_count, max_score, reviews, timestamp, url
		FROM rating_snapshots
		ORDER BY timestamp DESC
		LIMIT 1
	`

	snapshot, err := scanSnapshot(r.db.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		metrics.RecordDbError("rating-service", "latest")
		return nil, &StorageError{Op: "latest", Err: err}
	}

	timer.ObserveDuration()

	return snapshot, nil
}

// History возвращает до limit снапшотов, от новых к старым
func (r *snapshotRepository) History(ctx context.Context, limit int) ([]entity.RatingSnapshot, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT score::text, review_count, max_score, reviews, timestamp, url
		FROM rating_snapshots
		ORDER BY timestamp DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		metrics.RecordDbError("rating-service", "history")
		return nil, &StorageError{Op: "history", Err: err}
	}
	defer rows.Close()

	snapshots := make([]entity.RatingSnapshot, 0, limit)
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			metrics.RecordDbError("rating-service", "history")
			return nil, &StorageError{Op: "history", Err: err}
		}
		snapshots = append(snapshots, *snapshot)
	}

	if err := rows.Err(); err != nil {
		metrics.RecordDbError("rating-service", "history")
		return nil, &StorageError{Op: "history", Err: err}
	}

	return snapshots, nil
}

// scanSnapshot декодирует строку таблицы обратно в снапшот:
// score хранится как decimal и читается из текстового представления,
// max_score null/0 превращается в 5.
func scanSnapshot(row pgx.Row) (*entity.RatingSnapshot, error) {
	var (
		scoreText   string
		reviewCount *int
		maxScore    *int
		reviewsRaw  []byte
		timestamp   time.Time
		url         string
	)

	if err := row.Scan(&scoreText, &reviewCount, &maxScore, &reviewsRaw, &timestamp, &url); err != nil {
		return nil, err
	}

	score, err := strconv.ParseFloat(scoreText, 64)
	if err != nil {
		return nil, err
	}

	resolvedMax := 5
	if maxScore != nil && *maxScore > 0 {
		resolvedMax = *maxScore
	}

	reviews := []entity.Review{}
	if len(reviewsRaw) > 0 {
		if err := json.Unmarshal(reviewsRaw, &reviews); err != nil {
			return nil, err
		}
	}

	return &entity.RatingSnapshot{
		Score:       score,
		ReviewCount: reviewCount,
		MaxScore:    resolvedMax,
		Reviews:     reviews,
		Timestamp:   timestamp,
		URL:         url,
	}, nil
}

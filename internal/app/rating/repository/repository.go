package repository

import (
	"context"
	"fmt"

	"ratingwatch/internal/app/rating/entity"
)

// StorageError - типизированная ошибка слоя персистентности.
// Для вызывающего Refresh она фатальна: fetch прошел, обновление - нет.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// SnapshotRepository определяет контракт хранилища снапшотов рейтинга.
// Хранилище append-only: строки никогда не обновляются и не удаляются.
type SnapshotRepository interface {
	// EnsureSchema идемпотентно создает таблицу и индекс, если их нет
	EnsureSchema(ctx context.Context) error
	// Save добавляет новую строку с переданным снапшотом
	Save(ctx context.Context, snapshot *entity.RatingSnapshot) error
	// Latest возвращает самый свежий снапшот по timestamp;
	// (nil, nil) для пустого хранилища - это не ошибка
	Latest(ctx context.Context) (*entity.RatingSnapshot, error)
	// History возвращает снапшоты от новых к старым, не более limit
	History(ctx context.Context, limit int) ([]entity.RatingSnapshot, error)
}

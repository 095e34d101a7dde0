package service

import (
	"context"

	"ratingwatch/internal/app/rating/entity"
)

// RatingServiceInterface определяет операции над снапшотами рейтинга
type RatingServiceInterface interface {
	// Refresh выполняет одну атомарную операцию Fetch -> Extract -> Save
	// и возвращает только что сохраненный снапшот
	Refresh(ctx context.Context) (*entity.RatingSnapshot, error)
	// Latest возвращает последний сохраненный снапшот; (nil, nil) если данных еще нет
	Latest(ctx context.Context) (*entity.RatingSnapshot, error)
	// History возвращает до limit снапшотов, от новых к старым
	History(ctx context.Context, limit int) ([]entity.RatingSnapshot, error)
}

// PageFetcherInterface определяет получение сырой разметки источника
type PageFetcherInterface interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// SnapshotExtractorInterface определяет извлечение снапшота из разметки
type SnapshotExtractorInterface interface {
	Extract(markup, sourceURL string) (*entity.RatingSnapshot, error)
}

// EventPublisher определяет публикацию событий об обновлении рейтинга
type EventPublisher interface {
	PublishRatingUpdated(ctx context.Context, event *entity.RatingUpdatedEvent) error
}

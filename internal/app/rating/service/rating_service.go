package service

import (
	"context"
	"errors"
	"time"

	"ratingwatch/internal/app/rating/entity"
	"ratingwatch/internal/app/rating/repository"
	"ratingwatch/pkg/logger"
	"ratingwatch/pkg/metrics"
)

// ErrInvalidSnapshot - извлеченный снапшот нарушает инвариант
// 0 < score <= maxScore и не допускается в хранилище
var ErrInvalidSnapshot = errors.New("extracted snapshot violates score bounds")

// RatingService - оркестратор обновления: склеивает Fetcher, Extractor
// и SnapshotRepository в одну последовательную операцию Refresh.
// Никакого внутреннего параллелизма и частичных коммитов.
type RatingService struct {
	fetcher   PageFetcherInterface
	extractor SnapshotExtractorInterface
	repo      repository.SnapshotRepository
	publisher EventPublisher // nil, если публикация событий выключена
	sourceURL string
}

// NewRatingService создает новый сервис рейтинга.
// publisher может быть nil - тогда события не публикуются.
func NewRatingService(
	fetcher PageFetcherInterface,
	extractor SnapshotExtractorInterface,
	repo repository.SnapshotRepository,
	publisher EventPublisher,
	sourceURL string,
) *RatingService {
	return &RatingService{
		fetcher:   fetcher,
		extractor: extractor,
		repo:      repo,
		publisher: publisher,
		sourceURL: sourceURL,
	}
}

// Refresh выполняет Fetch -> Extract -> Save строго по порядку.
// Любой сбой на любой стадии прерывает операцию целиком, и исходная
// типизированная ошибка уходит вызывающему без оборачивания.
// Ретраев нет - повтор только по расписанию внешнего триггера.
func (s *RatingService) Refresh(ctx context.Context) (*entity.RatingSnapshot, error) {
	start := time.Now()

	logger.Info().Str("url", s.sourceURL).Msg("Refreshing rating snapshot")

	markup, err := s.fetcher.Fetch(ctx, s.sourceURL)
	if err != nil {
		metrics.ScrapeAttempts.WithLabelValues("transport_error").Inc()
		logger.Error().Err(err).Msg("Failed to fetch source page")
		return nil, err
	}

	snapshot, err := s.extractor.Extract(markup, s.sourceURL)
	if err != nil {
		metrics.ScrapeAttempts.WithLabelValues("extraction_error").Inc()
		logger.Error().Err(err).Msg("Failed to extract rating from markup")
		return nil, err
	}

	if !snapshot.Valid() {
		metrics.ScrapeAttempts.WithLabelValues("extraction_error").Inc()
		logger.Error().
			Float64("score", snapshot.Score).
			Int("maxScore", snapshot.MaxScore).
			Msg("Extracted snapshot failed score bounds check")
		return nil, ErrInvalidSnapshot
	}

	if err := s.repo.Save(ctx, snapshot); err != nil {
		metrics.ScrapeAttempts.WithLabelValues("storage_error").Inc()
		logger.Error().Err(err).Msg("Failed to save rating snapshot")
		return nil, err
	}

	metrics.ScrapeAttempts.WithLabelValues("success").Inc()
	metrics.SnapshotsSaved.Inc()
	metrics.LastObservedScore.Set(snapshot.Score)
	metrics.RefreshDuration.Observe(time.Since(start).Seconds())

	s.publishUpdated(ctx, snapshot)

	logger.Info().
		Float64("score", snapshot.Score).
		Int("reviews", len(snapshot.Reviews)).
		Msg("Rating snapshot updated")

	return snapshot, nil
}

// publishUpdated отправляет событие RATING_UPDATED best-effort:
// снапшот уже сохранен, поэтому сбой публикации не роняет Refresh
func (s *RatingService) publishUpdated(ctx context.Context, snapshot *entity.RatingSnapshot) {
	if s.publisher == nil {
		return
	}

	event := &entity.RatingUpdatedEvent{
		EventType:   "RATING_UPDATED",
		Score:       snapshot.Score,
		ReviewCount: snapshot.ReviewCount,
		URL:         snapshot.URL,
		Timestamp:   snapshot.Timestamp,
	}

	if err := s.publisher.PublishRatingUpdated(ctx, event); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish rating updated event")
	}
}

// Latest возвращает последний сохраненный снапшот
func (s *RatingService) Latest(ctx context.Context) (*entity.RatingSnapshot, error) {
	return s.repo.Latest(ctx)
}

// History возвращает до limit снапшотов, от новых к старым
func (s *RatingService) History(ctx context.Context, limit int) ([]entity.RatingSnapshot, error) {
	return s.repo.History(ctx, limit)
}

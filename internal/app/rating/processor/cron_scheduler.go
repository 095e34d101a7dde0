package processor

import (
	"context"

	"ratingwatch/internal/app/rating/service"
	"ratingwatch/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CronScheduler периодически запускает обновление снапшота рейтинга
type CronScheduler struct {
	cron      *cron.Cron
	ratingSvc service.RatingServiceInterface
}

func NewCronScheduler(ratingSvc service.RatingServiceInterface) *CronScheduler {
	return &CronScheduler{
		cron:      cron.New(),
		ratingSvc: ratingSvc,
	}
}

// Start регистрирует задачу по расписанию и выполняет одно
// немедленное обновление при старте. Сбой обновления не фатален -
// следующая попытка произойдет по расписанию.
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cron scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		logger.Info().Msg("Cron job triggered: refreshing rating snapshot")

		if _, err := s.ratingSvc.Refresh(ctx); err != nil {
			logger.Error().Err(err).Msg("Cron refresh failed")
		} else {
			logger.Info().Msg("Cron refresh completed")
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()

	logger.Info().Msg("Performing initial rating refresh")
	if _, err := s.ratingSvc.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial rating refresh failed")
	}

	return nil
}

// Stop останавливает планировщик, дожидаясь завершения текущих задач
func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

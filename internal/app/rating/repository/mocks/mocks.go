package mocks

import (
	"context"

	"ratingwatch/internal/app/rating/entity"

	"github.com/stretchr/testify/mock"
)

// MockSnapshotRepository мок для SnapshotRepository
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSnapshotRepository) Save(ctx context.Context, snapshot *entity.RatingSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotRepository) Latest(ctx context.Context) (*entity.RatingSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RatingSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) History(ctx context.Context, limit int) ([]entity.RatingSnapshot, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.RatingSnapshot), args.Error(1)
}

// MockPageFetcher мок для PageFetcherInterface
type MockPageFetcher struct {
	mock.Mock
}

func (m *MockPageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

// MockSnapshotExtractor мок для SnapshotExtractorInterface
type MockSnapshotExtractor struct {
	mock.Mock
}

func (m *MockSnapshotExtractor) Extract(markup, sourceURL string) (*entity.RatingSnapshot, error) {
	args := m.Called(markup, sourceURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RatingSnapshot), args.Error(1)
}

// MockEventPublisher мок для EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishRatingUpdated(ctx context.Context, event *entity.RatingUpdatedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

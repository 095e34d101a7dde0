package entity

import (
	"strings"
	"time"
)

// RatingSnapshot - один полный срез состояния рейтинга источника.
// Создается заново при каждом успешном refresh и после этого не изменяется.
type RatingSnapshot struct {
	Score       float64   `json:"score"`       // Агрегированный рейтинг (0-5, один знак после запятой)
	ReviewCount *int      `json:"reviewCount"` // Количество отзывов; nil = источник не сообщил
	MaxScore    int       `json:"maxScore"`    // Потолок шкалы (по умолчанию 5)
	Reviews     []Review  `json:"reviews"`     // До 15 последних положительных отзывов
	Timestamp   time.Time `json:"timestamp"`   // Момент снятия среза (не время на странице)
	URL         string    `json:"url"`         // Точный URL источника для этого fetch
}

// Valid проверяет инвариант снапшота: 0 < score <= maxScore.
func (s *RatingSnapshot) Valid() bool {
	return s.Score > 0 && s.Score <= float64(s.MaxScore)
}

// Review - отзыв внутри снапшота, неизменяемый после извлечения.
// Хранятся только отзывы с рейтингом 4-5.
type Review struct {
	ID                  string  `json:"id"`
	Rating              float64 `json:"rating"`
	Title               string  `json:"title"`
	Text                string  `json:"text"`
	PublishedDate       string  `json:"publishedDate"`
	ConsumerDisplayName string  `json:"consumerDisplayName"`
	ConsumerIsVerified  bool    `json:"consumerIsVerified"`
	ConsumerID          string  `json:"consumerId"`
}

// IdentityKey возвращает ключ дедупликации отзыва:
// id, если он есть, иначе первые 50 символов текста (или заголовка)
// в нижнем регистре. Пустой ключ означает, что отзыв неидентифицируем.
func (r *Review) IdentityKey() string {
	if r.ID != "" {
		return r.ID
	}

	text := r.Text
	if text == "" {
		text = r.Title
	}

	// Обрезка по рунам: в шведских текстах байтовый срез
	// разрезал бы å/ä/ö посередине
	if runes := []rune(text); len(runes) > 50 {
		text = string(runes[:50])
	}

	return strings.ToLower(text)
}

// RatingUpdatedEvent - событие об успешном обновлении снапшота.
// Публикуется в Kafka после сохранения (best-effort).
type RatingUpdatedEvent struct {
	EventType   string    `json:"event_type"` // RATING_UPDATED
	Score       float64   `json:"score"`
	ReviewCount *int      `json:"review_count"`
	URL         string    `json:"url"`
	Timestamp   time.Time `json:"timestamp"`
}

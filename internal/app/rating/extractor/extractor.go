package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"ratingwatch/internal/app/rating/entity"
	"ratingwatch/pkg/metrics"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MaxReviews - максимум отзывов в снапшоте
	MaxReviews = 15

	// DefaultMaxScore - потолок шкалы по умолчанию
	DefaultMaxScore = 5

	// ReasonNoRatingFound - ни одна стратегия не нашла рейтинг
	ReasonNoRatingFound = "no_rating_found"

	// snippetLen - сколько символов разметки сохраняется для офлайн-диагностики
	snippetLen = 2000
)

// ExtractionError - типизированная ошибка извлечения.
// Snippet нужен только для диагностики смены формата страницы;
// вызывающий код не должен полагаться на его содержимое.
type ExtractionError struct {
	Reason  string
	Snippet string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

var (
	inlineRatingRe      = regexp.MustCompile(`"ratingValue":\s*"([\d.]+)"`)
	inlineReviewCountRe = regexp.MustCompile(`"reviewCount":\s*"(\d+)"`)
	captionRe           = regexp.MustCompile(`bedömdes som "([^"]+)" med ([\d,]+) / (\d+)`)

	// Четыре всё более размашистых паттерна для последней стратегии
	loosePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ratingValue["']?\s*[:=]\s*["']?([\d.]+)`),
		regexp.MustCompile(`(?i)"rating":\s*"([\d.]+)"`),
		regexp.MustCompile(`(?i)data-rating=["']([\d.]+)["']`),
		regexp.MustCompile(`(?i)class="[^"]*rating[^"]*"[^>]*>([\d.]+)`),
	}
)

// scoreResult - результат одной стратегии извлечения рейтинга
type scoreResult struct {
	score       float64
	reviewCount *int // nil = источник не сообщил количество
	maxScore    int
}

// scoreStrategy - одна самостоятельная техника парсинга,
// пробуются по порядку до первого успеха
type scoreStrategy struct {
	name string
	fn   func(markup string, doc *goquery.Document) (*scoreResult, bool)
}

// Extractor превращает сырую разметку страницы в RatingSnapshot.
// Чистая функция: никакого I/O и состояния между вызовами.
type Extractor struct {
	strategies []scoreStrategy
}

func NewExtractor() *Extractor {
	e := &Extractor{}
	e.strategies = []scoreStrategy{
		{name: "structured_data", fn: e.parseStructuredData},
		{name: "inline_attribute", fn: e.parseInlineAttribute},
		{name: "localized_caption", fn: e.parseLocalizedCaption},
		{name: "loose_pattern", fn: e.parseLoosePattern},
	}
	return e
}

// Extract прогоняет каскад стратегий и собирает итоговый снапшот.
// Извлечение отзывов и извлечение рейтинга - независимые подконвейеры:
// список отзывов (возможно пустой) подмешивается к любому рейтингу.
func (e *Extractor) Extract(markup, sourceURL string) (*entity.RatingSnapshot, error) {
	// goquery не исполняет JS и терпим к битой разметке;
	// при ошибке парсинга DOM-стратегии просто пропускаются
	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if docErr != nil {
		doc = nil
	}

	reviews := e.extractReviews(doc)

	for _, strategy := range e.strategies {
		result, ok := strategy.fn(markup, doc)
		if !ok {
			continue
		}

		metrics.ExtractionStrategyHits.WithLabelValues(strategy.name).Inc()

		return &entity.RatingSnapshot{
			Score:       result.score,
			ReviewCount: result.reviewCount,
			MaxScore:    result.maxScore,
			Reviews:     reviews,
			Timestamp:   time.Now().UTC(),
			URL:         sourceURL,
		}, nil
	}

	metrics.ExtractionStrategyHits.WithLabelValues("none").Inc()

	snippet := markup
	if len(snippet) > snippetLen {
		snippet = snippet[:snippetLen]
	}

	return nil, &ExtractionError{
		Reason:  ReasonNoRatingFound,
		Snippet: snippet,
	}
}

// ===================== Отзывы: __NEXT_DATA__ =====================

// nextDataReview - отзыв в JSON-острове Next.js.
// Числовые поля источник отдает то строкой, то числом.
type nextDataReview struct {
	ID     string `json:"id"`
	Rating any    `json:"rating"`
	Text   string `json:"text"`
	Title  string `json:"title"`
	Dates  struct {
		PublishedDate string `json:"publishedDate"`
		Published     string `json:"published"`
	} `json:"dates"`
	Consumer struct {
		DisplayName string `json:"displayName"`
		IsVerified  bool   `json:"isVerified"`
		ID          string `json:"id"`
	} `json:"consumer"`
}

// extractReviews достает отзывы 4-5 звезд из script#__NEXT_DATA__.
// Любой сбой декодирования здесь не прерывает общее извлечение -
// снапшот тогда получает пустой список отзывов.
func (e *Extractor) extractReviews(doc *goquery.Document) []entity.Review {
	if doc == nil {
		return []entity.Review{}
	}

	raw := doc.Find(`script#__NEXT_DATA__`).First().Text()
	if raw == "" {
		return []entity.Review{}
	}

	var nextData struct {
		Props struct {
			Reviews   []nextDataReview `json:"reviews"`
			PageProps struct {
				Reviews []nextDataReview `json:"reviews"`
			} `json:"pageProps"`
		} `json:"props"`
	}

	if err := json.Unmarshal([]byte(raw), &nextData); err != nil {
		return []entity.Review{}
	}

	// Массив отзывов живет под одним из двух известных путей
	source := nextData.Props.Reviews
	if source == nil {
		source = nextData.Props.PageProps.Reviews
	}

	reviews := make([]entity.Review, 0, len(source))
	for _, r := range source {
		rating, ok := toFloat(r.Rating)
		if !ok || rating < 4 || rating > 5 {
			continue
		}

		published := r.Dates.PublishedDate
		if published == "" {
			published = r.Dates.Published
		}

		reviews = append(reviews, entity.Review{
			ID:                  r.ID,
			Rating:              rating,
			Text:                r.Text,
			Title:               r.Title,
			PublishedDate:       published,
			ConsumerDisplayName: r.Consumer.DisplayName,
			ConsumerIsVerified:  r.Consumer.IsVerified,
			ConsumerID:          r.Consumer.ID,
		})
	}

	return normalizeReviews(reviews)
}

// normalizeReviews дедуплицирует (первый в порядке документа побеждает),
// сортирует по дате публикации (новые сверху, непарсибельные даты в конец,
// при равенстве - рейтинг по убыванию) и обрезает до MaxReviews.
func normalizeReviews(reviews []entity.Review) []entity.Review {
	seen := make(map[string]struct{}, len(reviews))
	unique := make([]entity.Review, 0, len(reviews))

	for _, r := range reviews {
		key := r.IdentityKey()
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, r)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		di := parsePublishedDate(unique[i].PublishedDate)
		dj := parsePublishedDate(unique[j].PublishedDate)
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return unique[i].Rating > unique[j].Rating
	})

	if len(unique) > MaxReviews {
		unique = unique[:MaxReviews]
	}

	return unique
}

var publishedDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parsePublishedDate возвращает epoch-0 для пустых/непарсибельных дат,
// чтобы такие отзывы уходили в конец сортировки
func parsePublishedDate(value string) time.Time {
	for _, layout := range publishedDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Unix(0, 0).UTC()
}

// ===================== Стратегия: JSON-LD =====================

// ldAggregateRating - контейнер агрегированного рейтинга в linked-data блоке
type ldAggregateRating struct {
	RatingValue any `json:"ratingValue"`
	ReviewCount any `json:"reviewCount"`
	BestRating  any `json:"bestRating"`
}

type ldBlock struct {
	AggregateRating *ldAggregateRating `json:"aggregateRating"`
	RatingValue     any                `json:"ratingValue"`
	ReviewCount     any                `json:"reviewCount"`
	BestRating      any                `json:"bestRating"`
}

// parseStructuredData сканирует все блоки application/ld+json.
// Битый JSON в отдельном блоке не прерывает скан остальных;
// нулевой ratingValue трактуется как "отсутствует" и скан продолжается.
func (e *Extractor) parseStructuredData(_ string, doc *goquery.Document) (*scoreResult, bool) {
	if doc == nil {
		return nil, false
	}

	var found *scoreResult

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := []byte(s.Text())

		var block ldBlock
		if err := json.Unmarshal(raw, &block); err == nil {
			if result, ok := ratingFromBlock(&block); ok {
				found = result
				return false
			}
		}

		var blocks []ldBlock
		if err := json.Unmarshal(raw, &blocks); err == nil {
			for i := range blocks {
				if result, ok := ratingFromBlock(&blocks[i]); ok {
					found = result
					return false
				}
			}
		}

		return true
	})

	return found, found != nil
}

// ratingFromBlock принимает блок, у которого aggregateRating вложен
// либо который сам является контейнером рейтинга
func ratingFromBlock(block *ldBlock) (*scoreResult, bool) {
	rating := block.AggregateRating
	if rating == nil {
		rating = &ldAggregateRating{
			RatingValue: block.RatingValue,
			ReviewCount: block.ReviewCount,
			BestRating:  block.BestRating,
		}
	}

	score, ok := toFloat(rating.RatingValue)
	if !ok || score == 0 {
		// Явный ноль считается отсутствующим значением, не валидным рейтингом
		return nil, false
	}

	maxScore := DefaultMaxScore
	if best, ok := toInt(rating.BestRating); ok && best > 0 {
		maxScore = best
	}

	return &scoreResult{
		score:       score,
		reviewCount: optionalInt(rating.ReviewCount),
		maxScore:    maxScore,
	}, true
}

// ===================== Стратегия: inline-атрибуты =====================

func (e *Extractor) parseInlineAttribute(markup string, _ *goquery.Document) (*scoreResult, bool) {
	m := inlineRatingRe.FindStringSubmatch(markup)
	if m == nil {
		return nil, false
	}

	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, false
	}

	return &scoreResult{
		score:       score,
		reviewCount: inlineReviewCount(markup),
		maxScore:    DefaultMaxScore,
	}, true
}

// ===================== Стратегия: локализованная подпись =====================

// parseLocalizedCaption ищет шведскую фразу вида
// `bedömdes som "Utmärkt" med 4,6 / 5` (запятая как десятичный разделитель)
func (e *Extractor) parseLocalizedCaption(markup string, _ *goquery.Document) (*scoreResult, bool) {
	m := captionRe.FindStringSubmatch(markup)
	if m == nil {
		return nil, false
	}

	score, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", "."), 64)
	if err != nil {
		return nil, false
	}

	maxScore, err := strconv.Atoi(m[3])
	if err != nil || maxScore <= 0 {
		maxScore = DefaultMaxScore
	}

	return &scoreResult{
		score:       score,
		reviewCount: inlineReviewCount(markup),
		maxScore:    maxScore,
	}, true
}

// ===================== Стратегия: свободные паттерны =====================

func (e *Extractor) parseLoosePattern(markup string, _ *goquery.Document) (*scoreResult, bool) {
	for _, pattern := range loosePatterns {
		m := pattern.FindStringSubmatch(markup)
		if m == nil {
			continue
		}

		score, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}

		// Принимается только число строго в (0, 5]
		if score <= 0 || score > 5 {
			continue
		}

		return &scoreResult{
			score:       score,
			reviewCount: inlineReviewCount(markup),
			maxScore:    DefaultMaxScore,
		}, true
	}

	return nil, false
}

// ===================== Helpers =====================

// inlineReviewCount достает количество отзывов из сырой разметки;
// nil означает "источник не сообщил", никогда не молчаливый 0
func inlineReviewCount(markup string) *int {
	m := inlineReviewCountRe.FindStringSubmatch(markup)
	if m == nil {
		return nil
	}

	count, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}

	return &count
}

// toFloat приводит JSON-значение (число или строку) к float64
func toFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toInt приводит JSON-значение (число или строку) к int
func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func optionalInt(v any) *int {
	if v == nil {
		return nil
	}
	i, ok := toInt(v)
	if !ok {
		return nil
	}
	return &i
}

package entity

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error string `json:"error"`
}

// RefreshResponse - ответ ручного обновления
type RefreshResponse struct {
	Success bool            `json:"success"`
	Data    *RatingSnapshot `json:"data"`
}

// CronResponse - ответ cron-эндпоинта с краткой сводкой
type CronResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
	Data      CronSummaryData `json:"data"`
}

// CronSummaryData - краткая сводка снапшота для cron-ответа
type CronSummaryData struct {
	Score       float64 `json:"score"`
	ReviewCount *int    `json:"reviewCount"`
}

// HistoryResponse - ответ со списком исторических снапшотов
type HistoryResponse struct {
	Snapshots []RatingSnapshot `json:"snapshots"`
	Total     int              `json:"total"`
}

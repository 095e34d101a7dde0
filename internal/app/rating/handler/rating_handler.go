package handler

import (
	"net/http"
	"strconv"
	"time"

	"ratingwatch/internal/app/rating/entity"
	"ratingwatch/internal/app/rating/service"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 10

// RatingHandler обслуживает read API и триггеры обновления
type RatingHandler struct {
	ratingService service.RatingServiceInterface
	cronSecret    string // пустая строка = проверка триггера выключена
}

func NewRatingHandler(ratingService service.RatingServiceInterface, cronSecret string) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
		cronSecret:    cronSecret,
	}
}

// GetRating отдает последний сохраненный снапшот.
// 404 "No data available yet" - это пустое хранилище, не ошибка.
func (h *RatingHandler) GetRating(c *gin.Context) {
	snapshot, err := h.ratingService.Latest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Internal server error"})
		return
	}

	if snapshot == nil {
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "No data available yet"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// Refresh синхронно запускает одно обновление и возвращает результат
func (h *RatingHandler) Refresh(c *gin.Context) {
	snapshot, err := h.ratingService.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, entity.RefreshResponse{
		Success: true,
		Data:    snapshot,
	})
}

// GetHistory отдает до limit последних снапшотов
func (h *RatingHandler) GetHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	snapshots, err := h.ratingService.History(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, entity.HistoryResponse{
		Snapshots: snapshots,
		Total:     len(snapshots),
	})
}

// CronUpdate - эндпоинт планового триггера. Если секрет сконфигурирован,
// требуется заголовок Authorization: Bearer <secret>; проверка выполняется
// до любого обращения к ядру.
func (h *RatingHandler) CronUpdate(c *gin.Context) {
	if h.cronSecret != "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "Bearer "+h.cronSecret {
			c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
			return
		}
	}

	snapshot, err := h.ratingService.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Cron job failed",
			"message":   err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, entity.CronResponse{
		Success:   true,
		Message:   "Rating data updated successfully",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: entity.CronSummaryData{
			Score:       snapshot.Score,
			ReviewCount: snapshot.ReviewCount,
		},
	})
}

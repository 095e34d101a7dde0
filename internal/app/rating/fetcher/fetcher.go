package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent - идентичность десктопного браузера;
// источник отклоняет запросы без правдоподобного User-Agent
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// TransportError - типизированная ошибка транспортного уровня.
// Возникает только когда разметку получить не удалось вовсе;
// не-2xx ответы ошибкой не считаются - тело парсится в любом случае.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PageFetcher выполняет один GET за сырой разметкой страницы.
// Без ретраев и без разбора содержимого - только транспорт.
type PageFetcher struct {
	userAgent  string
	httpClient *http.Client
}

// NewPageFetcher создает новый HTTP-клиент для страницы источника
func NewPageFetcher(userAgent string, timeoutSec int) *PageFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &PageFetcher{
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
	}
}

// Fetch получает разметку по URL, дочитывая тело до конца.
// Статус-код намеренно не проверяется: страницы с ошибочным статусом
// все равно могут содержать извлекаемые данные.
func (f *PageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &TransportError{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{URL: url, Err: err}
	}

	return string(body), nil
}

// Package geo содержит коллаборатора геолокации: определение города и страны
// по IP-адресу через внешний сервис ip-api.com
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Unknown — значение-заглушка, когда геоданные недоступны
const Unknown = "n/a"

// ErrNoLocationData возвращается, когда геоданные по IP получить не удалось
var ErrNoLocationData = errors.New("no location data")

// Location содержит город и страну по IP-адресу
type Location struct {
	City    string
	Country string
}

// apiResponse — ответ ip-api.com
type apiResponse struct {
	Status  string `json:"status"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// Client реализует запросы к сервису геолокации
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewClient создаёт новый экземпляр Client
func NewClient(logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 3 * time.Second},
		baseURL:    "http://ip-api.com",
		logger:     logger,
	}
}

// Locate возвращает город и страну по IP-адресу
func (c *Client) Locate(ctx context.Context, ip string) (Location, error) {
	if ip == "" {
		return Location{}, ErrNoLocationData
	}

	url := fmt.Sprintf("%s/json/%s?fields=status,country,city", c.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Location{}, fmt.Errorf("build geo request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Geolocation request failed", zap.String("ip", ip), zap.Error(err))
		return Location{}, ErrNoLocationData
	}
	defer resp.Body.Close()

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		c.logger.Warn("Failed to decode geolocation response", zap.String("ip", ip), zap.Error(err))
		return Location{}, ErrNoLocationData
	}
	if data.Status != "success" || data.City == "" || data.Country == "" {
		return Location{}, ErrNoLocationData
	}
	return Location{City: data.City, Country: data.Country}, nil
}

// ClientIP извлекает IP-адрес клиента из заголовков запроса
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

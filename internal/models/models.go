// Package models содержит структуры данных сервиса коротких ссылок
package models

import "time"

// Link представляет запись короткой ссылки
type Link struct {
	ID             int64      `json:"id" db:"id"`
	Slug           string     `json:"slug" db:"slug"`
	LongURL        string     `json:"long_url" db:"long_url"`
	UserID         int64      `json:"user_id" db:"user_id"`
	IsPrivate      bool       `json:"is_private" db:"is_private"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty" db:"expiration_date"`
	PasswordHash   string     `json:"-" db:"password"`
	HopCounts      int64      `json:"hop_counts" db:"hop_counts"`
}

// RedirectEvent представляет одно событие перехода по короткой ссылке.
// Время хранится строкой в UTC, формат "2006-01-02 15:04:05".
type RedirectEvent struct {
	ID              int64  `json:"id" db:"id"`
	Slug            string `json:"slug" db:"slug"`
	LongURL         string `json:"long_url" db:"long_url"`
	CreatedBy       string `json:"created_by" db:"created_by"`
	LocationCity    string `json:"location_city" db:"location_city"`
	LocationCountry string `json:"location_country" db:"location_country"`
	Time            string `json:"time" db:"time"`
}

// CreateLinkResult содержит результат создания короткой ссылки
type CreateLinkResult struct {
	Slug          string `json:"slug"`
	CreatedBefore bool   `json:"created_before"`
}

// Stats содержит агрегированную статистику сервиса
type Stats struct {
	Links     int64 `json:"links"`
	Redirects int64 `json:"redirects"`
}

// ShortenRequest — тело запроса на создание короткой ссылки
type ShortenRequest struct {
	LongURL string `json:"long_url"`
}

// ShortenResponse — ответ на создание короткой ссылки
type ShortenResponse struct {
	Slug          string `json:"slug"`
	ShortURL      string `json:"short_url"`
	CreatedBefore bool   `json:"created_before"`
}

// ResolveRequest — тело запроса на разрешение защищённой ссылки
type ResolveRequest struct {
	Password string `json:"password"`
}

// ResolveResponse — ответ с оригинальным URL
type ResolveResponse struct {
	LongURL string `json:"long_url"`
}

// ExpirationRequest — тело запроса на установку срока действия ссылки.
// Время передаётся в часовом поясе пользователя, формат "2006-01-02 15:04".
type ExpirationRequest struct {
	ExpirationDate string `json:"expiration_date"`
	Timezone       string `json:"timezone"`
}

// CustomizeSlugRequest — тело запроса на замену слага
type CustomizeSlugRequest struct {
	NewSlug string `json:"new_slug"`
}

// PasswordRequest — тело запроса на установку пароля для ссылки
type PasswordRequest struct {
	Password string `json:"password"`
}

// LinkResponse — представление ссылки в ответах API
type LinkResponse struct {
	Slug           string `json:"slug"`
	ShortURL       string `json:"short_url"`
	LongURL        string `json:"long_url"`
	IsPrivate      bool   `json:"is_private"`
	IsProtected    bool   `json:"is_protected"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	HopCounts      int64  `json:"hop_counts"`
}

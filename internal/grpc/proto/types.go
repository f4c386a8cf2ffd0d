// Package proto содержит определения типов для gRPC сервиса коротких ссылок
package proto

// CreateLinkRequest представляет запрос на создание короткой ссылки
type CreateLinkRequest struct {
	LongURL string `json:"long_url"`
}

// CreateLinkResponse представляет ответ с созданной короткой ссылкой
type CreateLinkResponse struct {
	Slug          string `json:"slug"`
	ShortURL      string `json:"short_url"`
	CreatedBefore bool   `json:"created_before"`
}

// ResolveLinkRequest представляет запрос на разрешение короткой ссылки
type ResolveLinkRequest struct {
	Slug     string `json:"slug"`
	Password string `json:"password"`
}

// ResolveLinkResponse представляет ответ с оригинальным URL
type ResolveLinkResponse struct {
	LongURL string `json:"long_url"`
}

// SetExpirationRequest представляет запрос на установку срока действия
type SetExpirationRequest struct {
	Slug           string `json:"slug"`
	ExpirationDate string `json:"expiration_date"`
	Timezone       string `json:"timezone"`
}

// SetExpirationResponse представляет ответ на установку срока действия
type SetExpirationResponse struct{}

// RemoveExpirationRequest представляет запрос на снятие срока действия
type RemoveExpirationRequest struct {
	Slug string `json:"slug"`
}

// RemoveExpirationResponse представляет ответ на снятие срока действия
type RemoveExpirationResponse struct{}

// CustomizeSlugRequest представляет запрос на замену слага
type CustomizeSlugRequest struct {
	Slug    string `json:"slug"`
	NewSlug string `json:"new_slug"`
}

// CustomizeSlugResponse представляет ответ с новым слагом
type CustomizeSlugResponse struct {
	Slug     string `json:"slug"`
	ShortURL string `json:"short_url"`
}

// SetPasswordRequest представляет запрос на установку пароля
type SetPasswordRequest struct {
	Slug     string `json:"slug"`
	Password string `json:"password"`
}

// SetPasswordResponse представляет ответ на установку пароля
type SetPasswordResponse struct{}

// RemovePasswordRequest представляет запрос на снятие пароля
type RemovePasswordRequest struct {
	Slug string `json:"slug"`
}

// RemovePasswordResponse представляет ответ на снятие пароля
type RemovePasswordResponse struct{}

// DeleteLinkRequest представляет запрос на удаление ссылки
type DeleteLinkRequest struct {
	Slug string `json:"slug"`
}

// DeleteLinkResponse представляет ответ на удаление ссылки
type DeleteLinkResponse struct{}

// RedirectEvent представляет событие перехода в истории
type RedirectEvent struct {
	Slug            string `json:"slug"`
	LongURL         string `json:"long_url"`
	CreatedBy       string `json:"created_by"`
	LocationCity    string `json:"location_city"`
	LocationCountry string `json:"location_country"`
	Time            string `json:"time"`
}

// GetHistoryRequest представляет запрос истории переходов
type GetHistoryRequest struct {
	Slug     string `json:"slug"`
	Timezone string `json:"timezone"`
}

// GetHistoryResponse представляет ответ с историей переходов
type GetHistoryResponse struct {
	Events []*RedirectEvent `json:"events"`
}

// Link представляет информацию о короткой ссылке
type Link struct {
	Slug           string `json:"slug"`
	ShortURL       string `json:"short_url"`
	LongURL        string `json:"long_url"`
	IsPrivate      bool   `json:"is_private"`
	IsProtected    bool   `json:"is_protected"`
	ExpirationDate string `json:"expiration_date"`
	HopCounts      int64  `json:"hop_counts"`
}

// GetUserLinksRequest представляет запрос ссылок пользователя
type GetUserLinksRequest struct {
	Timezone string `json:"timezone"`
}

// GetUserLinksResponse представляет ответ со ссылками пользователя
type GetUserLinksResponse struct {
	Links []*Link `json:"links"`
}

// GetStatsRequest представляет запрос статистики
type GetStatsRequest struct{}

// GetStatsResponse представляет ответ со статистикой
type GetStatsResponse struct {
	LinksCount     int64 `json:"links_count"`
	RedirectsCount int64 `json:"redirects_count"`
}

// PingRequest представляет запрос проверки состояния
type PingRequest struct{}

// PingResponse представляет ответ проверки состояния
type PingResponse struct {
	DatabaseAvailable bool `json:"database_available"`
}

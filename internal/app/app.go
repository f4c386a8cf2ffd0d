// Package app содержит HTTP-обработчики сервиса коротких ссылок
package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tempizhere/linkcut/internal/geo"
	"github.com/tempizhere/linkcut/internal/middleware"
	"github.com/tempizhere/linkcut/internal/models"
	"github.com/tempizhere/linkcut/internal/repository"
	"github.com/tempizhere/linkcut/internal/service"
	"go.uber.org/zap"
)

// App содержит хендлеры и зависимости
type App struct {
	svc    *service.Service
	db     repository.Database
	logger *zap.Logger
}

// NewApp создаёт новое приложение
func NewApp(svc *service.Service, db repository.Database, logger *zap.Logger) *App {
	return &App{svc: svc, db: db, logger: logger}
}

// HandlePostURL обрабатывает POST-запросы на "/": тело запроса — URL
// в виде простого текста
func (a *App) HandlePostURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	result, err := a.svc.CreateLink(r.Context(), strings.TrimSpace(string(body)), userID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	status := http.StatusCreated
	if result.CreatedBefore {
		status = http.StatusConflict
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(a.svc.ShortURL(result.Slug))); err != nil {
		http.Error(w, "Failed to write response", http.StatusInternalServerError)
	}
}

// HandleRedirect обрабатывает GET-запросы на "/{slug}". Пароль защищённой
// ссылки передаётся query-параметром password
func (a *App) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		http.Error(w, "Missing slug", http.StatusBadRequest)
		return
	}

	longURL, err := a.svc.ResolveLink(r.Context(), slug, r.URL.Query().Get("password"), a.actor(r), geo.ClientIP(r))
	if err != nil {
		a.writeError(w, err)
		return
	}

	w.Header().Set("Location", longURL)
	w.WriteHeader(http.StatusTemporaryRedirect)
}

// HandleJSONShorten обрабатывает POST-запросы на "/api/shorten"
func (a *App) HandleJSONShorten(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var reqBody models.ShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	result, err := a.svc.CreateLink(r.Context(), reqBody.LongURL, userID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	status := http.StatusCreated
	if result.CreatedBefore {
		status = http.StatusConflict
	}
	a.writeJSONResponse(w, status, models.ShortenResponse{
		Slug:          result.Slug,
		ShortURL:      a.svc.ShortURL(result.Slug),
		CreatedBefore: result.CreatedBefore,
	})
}

// HandleResolve обрабатывает POST-запросы на "/api/resolve/{slug}":
// разрешение ссылки без редиректа, пароль в теле запроса
func (a *App) HandleResolve(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var reqBody models.ResolveRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}

	longURL, err := a.svc.ResolveLink(r.Context(), slug, reqBody.Password, a.actor(r), geo.ClientIP(r))
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSONResponse(w, http.StatusOK, models.ResolveResponse{LongURL: longURL})
}

// HandleUserLinks обрабатывает GET-запросы на "/api/links"
func (a *App) HandleUserLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	links, err := a.svc.ListUserLinks(userID, r.URL.Query().Get("timezone"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	if len(links) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	a.writeJSONResponse(w, http.StatusOK, links)
}

// HandleSetExpiration обрабатывает PUT-запросы на "/api/links/{slug}/expiration"
func (a *App) HandleSetExpiration(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var reqBody models.ExpirationRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := a.svc.SetExpiration(slug, reqBody.ExpirationDate, reqBody.Timezone); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleRemoveExpiration обрабатывает DELETE-запросы на "/api/links/{slug}/expiration"
func (a *App) HandleRemoveExpiration(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.RemoveExpiration(chi.URLParam(r, "slug")); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleCustomizeSlug обрабатывает PUT-запросы на "/api/links/{slug}/customize"
func (a *App) HandleCustomizeSlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var reqBody models.CustomizeSlugRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := a.svc.CustomizeSlug(slug, reqBody.NewSlug, userID); err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSONResponse(w, http.StatusOK, models.ShortenResponse{
		Slug:     reqBody.NewSlug,
		ShortURL: a.svc.ShortURL(reqBody.NewSlug),
	})
}

// HandleSetPassword обрабатывает PUT-запросы на "/api/links/{slug}/password"
func (a *App) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var reqBody models.PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if reqBody.Password == "" {
		http.Error(w, "Empty password", http.StatusBadRequest)
		return
	}

	if err := a.svc.SetPassword(slug, userID, reqBody.Password); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleRemovePassword обрабатывает DELETE-запросы на "/api/links/{slug}/password"
func (a *App) HandleRemovePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := a.svc.RemovePassword(chi.URLParam(r, "slug"), userID); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleHistory обрабатывает GET-запросы на "/api/links/{slug}/history"
func (a *App) HandleHistory(w http.ResponseWriter, r *http.Request) {
	events, err := a.svc.ListRedirectHistory(chi.URLParam(r, "slug"), r.URL.Query().Get("timezone"))
	if err != nil {
		if errors.Is(err, service.ErrNoHistory) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		a.writeError(w, err)
		return
	}

	a.writeJSONResponse(w, http.StatusOK, events)
}

// HandleDeleteLink обрабатывает DELETE-запросы на "/api/links/{slug}"
func (a *App) HandleDeleteLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := a.svc.DeleteLink(chi.URLParam(r, "slug"), userID); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandlePing обрабатывает GET-запросы на "/ping"
func (a *App) HandlePing(w http.ResponseWriter, r *http.Request) {
	if a.db == nil {
		http.Error(w, "Database not configured", http.StatusInternalServerError)
		return
	}
	if err := a.db.Ping(); err != nil {
		http.Error(w, "Database connection failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleStats обрабатывает GET-запросы на "/api/internal/stats".
// Маршрут закрыт проверкой доверенной подсети
func (a *App) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.Stats()
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, stats)
}

// actor возвращает метку инициатора перехода для истории.
// Анонимные переходы не журналируются
func (a *App) actor(r *http.Request) string {
	userID, ok := middleware.GetUserID(r)
	if !ok || userID == 0 {
		return ""
	}
	return "user:" + strconv.FormatInt(userID, 10)
}

// writeError переводит ошибки движка в HTTP-статусы
func (a *App) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrLinkNotFound):
		http.Error(w, "Link not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrLinkExpired):
		http.Error(w, "Link expired", http.StatusGone)
	case errors.Is(err, repository.ErrLinkProtected):
		http.Error(w, "Link is password protected", http.StatusForbidden)
	case errors.Is(err, repository.ErrSlugExists):
		http.Error(w, "Slug already exists", http.StatusConflict)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, "Access denied", http.StatusForbidden)
	case errors.Is(err, service.ErrEmptyURL),
		errors.Is(err, service.ErrInvalidSlugFormat),
		errors.Is(err, service.ErrExpirationInPast):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		a.logger.Error("Internal error", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeJSONResponse пишет JSON-ответ с проверкой ошибок
func (a *App) writeJSONResponse(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to encode JSON", http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(data); err != nil {
		http.Error(w, "Failed to write response", http.StatusInternalServerError)
	}
}

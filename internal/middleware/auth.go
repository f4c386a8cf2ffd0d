package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/tempizhere/linkcut/internal/auth"
	"go.uber.org/zap"
)

// UserIDKey для хранения идентификатора пользователя в контексте
type UserIDKey struct{}

// AuthMiddleware извлекает пользователя из куки с JWT. Запрос без валидной
// куки остаётся анонимным; на маршруте личного кабинета новая личность
// выпускается на месте, как это делает браузерная сессия
func AuthMiddleware(authSvc *auth.Service, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := auth.AnonymousUserID

			cookie, err := r.Cookie(authSvc.CookieName())
			if err == nil && cookie.Value != "" {
				userID, err = authSvc.ParseToken(cookie.Value)
				if err != nil {
					logger.Warn("Invalid JWT token", zap.Error(err))
					userID = auth.AnonymousUserID
				}
			}

			// Листинг ссылок пользователя всегда персональный: без куки
			// выпускаем новую личность, ответ будет пустым списком
			if userID == auth.AnonymousUserID && r.URL.Path == "/api/links" && r.Method == http.MethodGet {
				userID, err = authSvc.NewUserID()
				if err != nil {
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				token, err := authSvc.GenerateToken(userID)
				if err != nil {
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     authSvc.CookieName(),
					Value:    token,
					Expires:  time.Now().Add(authSvc.CookieTTL()),
					Path:     "/",
					HttpOnly: true,
				})
			}

			ctx := context.WithValue(r.Context(), UserIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID извлекает идентификатор пользователя из контекста
func GetUserID(r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(UserIDKey{}).(int64)
	return userID, ok
}

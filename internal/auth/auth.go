// Package auth содержит коллаборатора аутентификации: выпуск и проверку JWT,
// проверку владельца ссылки и хеширование паролей
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/tempizhere/linkcut/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// AnonymousUserID — идентификатор анонимного пользователя
const AnonymousUserID int64 = 0

// ErrInvalidToken возвращается при некорректном или просроченном JWT
var ErrInvalidToken = errors.New("invalid token")

// Config содержит настройки аутентификации. Конструируется один раз при
// старте процесса и передаётся явно, без изменяемых глобальных объектов
type Config struct {
	JWTSecret  string
	CookieName string
	CookieTTL  time.Duration
}

// Claims содержит полезную нагрузку JWT
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// Service реализует проверки аутентификации и владения ссылками
type Service struct {
	cfg   Config
	links repository.LinkRepository
}

// NewService создаёт новый экземпляр Service
func NewService(cfg Config, links repository.LinkRepository) *Service {
	return &Service{
		cfg:   cfg,
		links: links,
	}
}

// CookieName возвращает имя куки с JWT
func (s *Service) CookieName() string {
	return s.cfg.CookieName
}

// CookieTTL возвращает срок жизни куки с JWT
func (s *Service) CookieTTL() time.Duration {
	return s.cfg.CookieTTL
}

// GenerateToken выпускает JWT для пользователя
func (s *Service) GenerateToken(userID int64) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.CookieTTL)),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken проверяет JWT и возвращает идентификатор пользователя
func (s *Service) ParseToken(tokenString string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return AnonymousUserID, ErrInvalidToken
	}
	return claims.UserID, nil
}

// NewUserID выпускает новый идентификатор пользователя.
// Ноль зарезервирован за анонимным пользователем и никогда не выпускается
func (s *Service) NewUserID() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64-1))
	if err != nil {
		return AnonymousUserID, fmt.Errorf("generate user id: %w", err)
	}
	return n.Int64() + 1, nil
}

// OwnerOf возвращает идентификатор владельца ссылки
func (s *Service) OwnerOf(slug string) (int64, error) {
	link, err := s.links.Get(slug)
	if err != nil {
		return AnonymousUserID, err
	}
	return link.UserID, nil
}

// HashPassword возвращает bcrypt-хеш пароля
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

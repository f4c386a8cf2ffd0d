// Package repository содержит интерфейсы и реализации хранилищ ссылок и истории переходов
package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/tempizhere/linkcut/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// ErrSlugExists возвращается при попытке сохранить слаг, который уже существует
var ErrSlugExists = errors.New("slug already exists")

// ErrLinkNotFound возвращается, когда ссылка по слагу не найдена
var ErrLinkNotFound = errors.New("link not found")

// ErrLinkExpired возвращается при обращении к ссылке с истёкшим сроком действия
var ErrLinkExpired = errors.New("link expired")

// ErrLinkProtected возвращается при обращении к защищённой ссылке без корректного пароля
var ErrLinkProtected = errors.New("link is password-protected")

// LinkRepository определяет интерфейс хранилища коротких ссылок.
// Уникальность слага обеспечивает само хранилище: Save возвращает
// ErrSlugExists без предварительной проверки на стороне вызывающего.
type LinkRepository interface {
	// Save сохраняет новую ссылку, возвращает ErrSlugExists при конфликте слагов
	Save(link models.Link) error
	// Get возвращает ссылку по слагу
	Get(slug string) (models.Link, error)
	// FindPublicByLongURL ищет публичную ссылку по оригинальному URL
	FindPublicByLongURL(longURL string) (string, error)
	// Resolve проверяет срок действия и пароль, увеличивает счётчик переходов
	// и возвращает оригинальный URL
	Resolve(slug, password string, now time.Time) (string, error)
	// SetExpiration устанавливает срок действия; nil снимает его.
	// Установка срока помечает ссылку приватной
	SetExpiration(slug string, expiration *time.Time) error
	// SetPassword устанавливает хеш пароля и помечает ссылку приватной
	SetPassword(slug, hash string) error
	// ClearPassword снимает пароль, признак приватности не меняется
	ClearPassword(slug string) error
	// Rekey создаёт копию ссылки под новым слагом, исходная запись не меняется
	Rekey(oldSlug, newSlug string) error
	// Delete удаляет ссылку по слагу
	Delete(slug string) error
	// ListByUserID возвращает все ссылки, созданные пользователем
	ListByUserID(userID int64) ([]models.Link, error)
	// Count возвращает количество ссылок в хранилище
	Count() (int64, error)
}

// HistoryRepository определяет интерфейс журнала переходов по ссылкам
type HistoryRepository interface {
	// Append добавляет событие перехода в журнал
	Append(event models.RedirectEvent) error
	// ListBySlug возвращает события по слагу в порядке добавления
	ListBySlug(slug string) ([]models.RedirectEvent, error)
	// Rekey переносит все события со старого слага на новый
	Rekey(oldSlug, newSlug string) error
	// DeleteBySlug удаляет все события по слагу и возвращает их количество
	DeleteBySlug(slug string) (int64, error)
	// Count возвращает количество событий в журнале
	Count() (int64, error)
}

// Database определяет интерфейс для работы с базой данных
type Database interface {
	// Ping проверяет соединение с базой данных
	Ping() error
	// Close закрывает соединение с базой данных
	Close() error
	// Exec выполняет SQL-команду без возврата результатов
	Exec(query string, args ...interface{}) (sql.Result, error)
	// Query выполняет SQL-запрос и возвращает результаты
	Query(query string, args ...interface{}) (*sql.Rows, error)
	// QueryRow выполняет SQL-запрос и возвращает одну строку результата
	QueryRow(query string, args ...interface{}) *sql.Row
	// Begin начинает новую транзакцию
	Begin() (*sql.Tx, error)
}

// passwordMatches сверяет пароль с bcrypt-хешем; пустой пароль не подходит никогда
func passwordMatches(hash, password string) bool {
	if password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// expired сообщает, истёк ли срок действия: ссылка действительна строго до
// expiration, момент now == expiration уже считается истёкшим
func expired(expiration *time.Time, now time.Time) bool {
	return expiration != nil && !now.Before(*expiration)
}

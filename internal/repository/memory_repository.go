package repository

import (
	"sync"
	"time"

	"github.com/tempizhere/linkcut/internal/models"
)

// MemoryRepository реализует интерфейс LinkRepository с использованием map
type MemoryRepository struct {
	store  map[string]models.Link
	nextID int64
	mutex  sync.RWMutex
}

// NewMemoryRepository создаёт новый экземпляр MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		store:  make(map[string]models.Link),
		nextID: 1,
	}
}

// Save сохраняет новую ссылку, возвращает ErrSlugExists при конфликте слагов
func (r *MemoryRepository) Save(link models.Link) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.store[link.Slug]; exists {
		return ErrSlugExists
	}
	link.ID = r.nextID
	r.nextID++
	r.store[link.Slug] = link
	return nil
}

// Get возвращает ссылку по слагу
func (r *MemoryRepository) Get(slug string) (models.Link, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	link, exists := r.store[slug]
	if !exists {
		return models.Link{}, ErrLinkNotFound
	}
	return link, nil
}

// FindPublicByLongURL ищет публичную ссылку по оригинальному URL
func (r *MemoryRepository) FindPublicByLongURL(longURL string) (string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, link := range r.store {
		if !link.IsPrivate && link.LongURL == longURL {
			return link.Slug, nil
		}
	}
	return "", ErrLinkNotFound
}

// Resolve проверяет срок действия и пароль, увеличивает счётчик переходов
// и возвращает оригинальный URL
func (r *MemoryRepository) Resolve(slug, password string, now time.Time) (string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	link, exists := r.store[slug]
	if !exists {
		return "", ErrLinkNotFound
	}
	if expired(link.ExpirationDate, now) {
		return "", ErrLinkExpired
	}
	if link.PasswordHash != "" && !passwordMatches(link.PasswordHash, password) {
		return "", ErrLinkProtected
	}
	link.HopCounts++
	r.store[slug] = link
	return link.LongURL, nil
}

// SetExpiration устанавливает срок действия; nil снимает его
func (r *MemoryRepository) SetExpiration(slug string, expiration *time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	link, exists := r.store[slug]
	if !exists {
		return ErrLinkNotFound
	}
	link.ExpirationDate = expiration
	if expiration != nil {
		link.IsPrivate = true
	}
	r.store[slug] = link
	return nil
}

// SetPassword устанавливает хеш пароля и помечает ссылку приватной
func (r *MemoryRepository) SetPassword(slug, hash string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	link, exists := r.store[slug]
	if !exists {
		return ErrLinkNotFound
	}
	link.PasswordHash = hash
	link.IsPrivate = true
	r.store[slug] = link
	return nil
}

// ClearPassword снимает пароль, признак приватности не меняется
func (r *MemoryRepository) ClearPassword(slug string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	link, exists := r.store[slug]
	if !exists {
		return ErrLinkNotFound
	}
	link.PasswordHash = ""
	r.store[slug] = link
	return nil
}

// Rekey создаёт копию ссылки под новым слагом, исходная запись не меняется
func (r *MemoryRepository) Rekey(oldSlug, newSlug string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	link, exists := r.store[oldSlug]
	if !exists {
		return ErrLinkNotFound
	}
	if _, exists := r.store[newSlug]; exists {
		return ErrSlugExists
	}
	link.ID = r.nextID
	r.nextID++
	link.Slug = newSlug
	link.IsPrivate = true
	r.store[newSlug] = link
	return nil
}

// Delete удаляет ссылку по слагу
func (r *MemoryRepository) Delete(slug string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.store[slug]; !exists {
		return ErrLinkNotFound
	}
	delete(r.store, slug)
	return nil
}

// ListByUserID возвращает все ссылки, созданные пользователем
func (r *MemoryRepository) ListByUserID(userID int64) ([]models.Link, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var links []models.Link
	for _, link := range r.store {
		if link.UserID == userID {
			links = append(links, link)
		}
	}
	return links, nil
}

// Count возвращает количество ссылок в хранилище
func (r *MemoryRepository) Count() (int64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return int64(len(r.store)), nil
}

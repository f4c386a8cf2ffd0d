package repository

import (
	"sync"

	"github.com/tempizhere/linkcut/internal/models"
)

// MemoryHistoryRepository реализует интерфейс HistoryRepository с использованием map
type MemoryHistoryRepository struct {
	events map[string][]models.RedirectEvent
	nextID int64
	mutex  sync.RWMutex
}

// NewMemoryHistoryRepository создаёт новый экземпляр MemoryHistoryRepository
func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return &MemoryHistoryRepository{
		events: make(map[string][]models.RedirectEvent),
		nextID: 1,
	}
}

// Append добавляет событие перехода в журнал
func (r *MemoryHistoryRepository) Append(event models.RedirectEvent) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	event.ID = r.nextID
	r.nextID++
	r.events[event.Slug] = append(r.events[event.Slug], event)
	return nil
}

// ListBySlug возвращает события по слагу в порядке добавления
func (r *MemoryHistoryRepository) ListBySlug(slug string) ([]models.RedirectEvent, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stored := r.events[slug]
	events := make([]models.RedirectEvent, len(stored))
	copy(events, stored)
	return events, nil
}

// Rekey переносит все события со старого слага на новый
func (r *MemoryHistoryRepository) Rekey(oldSlug, newSlug string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	moved := r.events[oldSlug]
	if len(moved) == 0 {
		return nil
	}
	for i := range moved {
		moved[i].Slug = newSlug
	}
	r.events[newSlug] = append(r.events[newSlug], moved...)
	delete(r.events, oldSlug)
	return nil
}

// DeleteBySlug удаляет все события по слагу и возвращает их количество
func (r *MemoryHistoryRepository) DeleteBySlug(slug string) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	count := int64(len(r.events[slug]))
	delete(r.events, slug)
	return count, nil
}

// Count возвращает количество событий в журнале
func (r *MemoryHistoryRepository) Count() (int64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var total int64
	for _, events := range r.events {
		total += int64(len(events))
	}
	return total, nil
}

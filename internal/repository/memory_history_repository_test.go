package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tempizhere/linkcut/internal/models"
)

func TestMemoryHistoryRepository(t *testing.T) {
	repo := NewMemoryHistoryRepository()

	// Тест 1: пустой журнал — пустой результат, не ошибка
	events, err := repo.ListBySlug("abc123")
	assert.NoError(t, err)
	assert.Empty(t, events)

	// Тест 2: события возвращаются в порядке добавления
	for i := 1; i <= 3; i++ {
		err := repo.Append(models.RedirectEvent{
			Slug:            "abc123",
			LongURL:         "https://example.com",
			CreatedBy:       "user:1",
			LocationCity:    "n/a",
			LocationCountry: "n/a",
			Time:            fmt.Sprintf("2025-01-01 00:00:0%d", i),
		})
		assert.NoError(t, err)
	}
	assert.NoError(t, repo.Append(models.RedirectEvent{Slug: "other1", LongURL: "https://other.com", CreatedBy: "user:2", Time: "2025-01-01 00:00:00"}))

	events, err = repo.ListBySlug("abc123")
	assert.NoError(t, err)
	assert.Len(t, events, 3)
	for i, event := range events {
		assert.Equal(t, fmt.Sprintf("2025-01-01 00:00:0%d", i+1), event.Time, "Events should keep insertion order")
	}

	count, err := repo.Count()
	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)

	// Тест 3: пакетное удаление возвращает количество удалённых событий
	deleted, err := repo.DeleteBySlug("abc123")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	events, err = repo.ListBySlug("abc123")
	assert.NoError(t, err)
	assert.Empty(t, events)

	// Тест 4: удаление по слагу без истории — ноль, не ошибка
	deleted, err = repo.DeleteBySlug("missing")
	assert.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestMemoryHistoryRepository_Rekey(t *testing.T) {
	repo := NewMemoryHistoryRepository()

	for i := 1; i <= 2; i++ {
		assert.NoError(t, repo.Append(models.RedirectEvent{
			Slug:      "abc123",
			LongURL:   "https://example.com",
			CreatedBy: "user:1",
			Time:      fmt.Sprintf("2025-01-01 00:00:0%d", i),
		}))
	}

	// Тест 1: события переносятся на новый слаг с сохранением порядка
	assert.NoError(t, repo.Rekey("abc123", "my-link"))

	events, err := repo.ListBySlug("my-link")
	assert.NoError(t, err)
	assert.Len(t, events, 2)
	for i, event := range events {
		assert.Equal(t, "my-link", event.Slug, "Moved events should carry the new slug")
		assert.Equal(t, fmt.Sprintf("2025-01-01 00:00:0%d", i+1), event.Time)
	}

	// Тест 2: под старым слагом событий не остаётся
	events, err = repo.ListBySlug("abc123")
	assert.NoError(t, err)
	assert.Empty(t, events)

	// Тест 3: перенос со слага без истории безопасен
	assert.NoError(t, repo.Rekey("missing", "my-link"))
	events, err = repo.ListBySlug("my-link")
	assert.NoError(t, err)
	assert.Len(t, events, 2)
}

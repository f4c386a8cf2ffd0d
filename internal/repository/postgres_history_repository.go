package repository

import (
	"fmt"

	"github.com/tempizhere/linkcut/internal/models"
	"go.uber.org/zap"
)

// PostgresHistoryRepository реализует интерфейс HistoryRepository с использованием PostgreSQL
type PostgresHistoryRepository struct {
	db     Database
	logger *zap.Logger
}

// NewPostgresHistoryRepository создаёт новый экземпляр PostgresHistoryRepository
func NewPostgresHistoryRepository(db Database, logger *zap.Logger) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append добавляет событие перехода в журнал
func (r *PostgresHistoryRepository) Append(event models.RedirectEvent) error {
	_, err := r.db.Exec(
		"INSERT INTO redirects_history (slug, long_url, created_by, location_city, location_country, time) VALUES ($1, $2, $3, $4, $5, $6)",
		event.Slug, event.LongURL, event.CreatedBy, event.LocationCity, event.LocationCountry, event.Time,
	)
	if err != nil {
		r.logger.Error("Failed to append redirect event", zap.String("slug", event.Slug), zap.Error(err))
		return fmt.Errorf("append redirect event: %w", err)
	}
	return nil
}

// ListBySlug возвращает события по слагу в порядке добавления
func (r *PostgresHistoryRepository) ListBySlug(slug string) ([]models.RedirectEvent, error) {
	rows, err := r.db.Query(
		"SELECT id, slug, long_url, created_by, location_city, location_country, time FROM redirects_history WHERE slug = $1 ORDER BY id",
		slug,
	)
	if err != nil {
		r.logger.Error("Failed to list redirect events", zap.String("slug", slug), zap.Error(err))
		return nil, fmt.Errorf("list redirect events: %w", err)
	}
	defer rows.Close()

	var events []models.RedirectEvent
	for rows.Next() {
		var event models.RedirectEvent
		if err := rows.Scan(&event.ID, &event.Slug, &event.LongURL, &event.CreatedBy, &event.LocationCity, &event.LocationCountry, &event.Time); err != nil {
			return nil, fmt.Errorf("scan redirect event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list redirect events: %w", err)
	}
	return events, nil
}

// Rekey переносит все события со старого слага на новый
func (r *PostgresHistoryRepository) Rekey(oldSlug, newSlug string) error {
	_, err := r.db.Exec("UPDATE redirects_history SET slug = $2 WHERE slug = $1", oldSlug, newSlug)
	if err != nil {
		r.logger.Error("Failed to rekey redirect events", zap.String("old_slug", oldSlug), zap.String("new_slug", newSlug), zap.Error(err))
		return fmt.Errorf("rekey redirect events: %w", err)
	}
	return nil
}

// DeleteBySlug удаляет все события по слагу и возвращает их количество
func (r *PostgresHistoryRepository) DeleteBySlug(slug string) (int64, error) {
	res, err := r.db.Exec("DELETE FROM redirects_history WHERE slug = $1", slug)
	if err != nil {
		r.logger.Error("Failed to delete redirect events", zap.String("slug", slug), zap.Error(err))
		return 0, fmt.Errorf("delete redirect events: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

// Count возвращает количество событий в журнале
func (r *PostgresHistoryRepository) Count() (int64, error) {
	var count int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM redirects_history").Scan(&count); err != nil {
		return 0, fmt.Errorf("count redirect events: %w", err)
	}
	return count, nil
}

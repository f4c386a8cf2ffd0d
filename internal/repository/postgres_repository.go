package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tempizhere/linkcut/internal/models"
	"go.uber.org/zap"
)

// uniqueViolation — код ошибки PostgreSQL для нарушения уникального ограничения
const uniqueViolation = "23505"

// isUniqueViolation сообщает, вызвана ли ошибка нарушением уникального ограничения
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// PostgresRepository реализует интерфейс LinkRepository с использованием PostgreSQL
type PostgresRepository struct {
	db     Database
	logger *zap.Logger
}

// NewPostgresRepository создаёт новый экземпляр PostgresRepository
func NewPostgresRepository(db Database, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

// Save сохраняет новую ссылку, возвращает ErrSlugExists при конфликте слагов.
// Уникальность слага обеспечивается ограничением в базе, без предварительной проверки
func (r *PostgresRepository) Save(link models.Link) error {
	var exp interface{}
	if link.ExpirationDate != nil {
		exp = *link.ExpirationDate
	}
	var pass interface{}
	if link.PasswordHash != "" {
		pass = link.PasswordHash
	}
	_, err := r.db.Exec(
		"INSERT INTO links (slug, long_url, user_id, is_private, expiration_date, password, hop_counts) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		link.Slug, link.LongURL, link.UserID, link.IsPrivate, exp, pass, link.HopCounts,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugExists
		}
		r.logger.Error("Failed to save link", zap.String("slug", link.Slug), zap.Error(err))
		return fmt.Errorf("save link: %w", err)
	}
	return nil
}

// Get возвращает ссылку по слагу
func (r *PostgresRepository) Get(slug string) (models.Link, error) {
	row := r.db.QueryRow(
		"SELECT id, slug, long_url, user_id, is_private, expiration_date, password, hop_counts FROM links WHERE slug = $1",
		slug,
	)
	return scanLink(row)
}

// FindPublicByLongURL ищет публичную ссылку по оригинальному URL
func (r *PostgresRepository) FindPublicByLongURL(longURL string) (string, error) {
	var slug string
	err := r.db.QueryRow(
		"SELECT slug FROM links WHERE long_url = $1 AND is_private = FALSE LIMIT 1",
		longURL,
	).Scan(&slug)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrLinkNotFound
	}
	if err != nil {
		r.logger.Error("Failed to find link by long URL", zap.Error(err))
		return "", fmt.Errorf("find public link: %w", err)
	}
	return slug, nil
}

// Resolve проверяет срок действия и пароль, увеличивает счётчик переходов
// и возвращает оригинальный URL. Ошибка записи счётчика не маскируется
func (r *PostgresRepository) Resolve(slug, password string, now time.Time) (string, error) {
	link, err := r.Get(slug)
	if err != nil {
		return "", err
	}
	if expired(link.ExpirationDate, now) {
		return "", ErrLinkExpired
	}
	if link.PasswordHash != "" && !passwordMatches(link.PasswordHash, password) {
		return "", ErrLinkProtected
	}
	if _, err := r.db.Exec("UPDATE links SET hop_counts = hop_counts + 1 WHERE slug = $1", slug); err != nil {
		r.logger.Error("Failed to increment hop counts", zap.String("slug", slug), zap.Error(err))
		return "", fmt.Errorf("increment hop counts: %w", err)
	}
	return link.LongURL, nil
}

// SetExpiration устанавливает срок действия; nil снимает его.
// Установка срока помечает ссылку приватной
func (r *PostgresRepository) SetExpiration(slug string, expiration *time.Time) error {
	var res sql.Result
	var err error
	if expiration != nil {
		res, err = r.db.Exec("UPDATE links SET expiration_date = $2, is_private = TRUE WHERE slug = $1", slug, *expiration)
	} else {
		res, err = r.db.Exec("UPDATE links SET expiration_date = NULL WHERE slug = $1", slug)
	}
	if err != nil {
		r.logger.Error("Failed to set expiration", zap.String("slug", slug), zap.Error(err))
		return fmt.Errorf("set expiration: %w", err)
	}
	return requireRow(res)
}

// SetPassword устанавливает хеш пароля и помечает ссылку приватной
func (r *PostgresRepository) SetPassword(slug, hash string) error {
	res, err := r.db.Exec("UPDATE links SET password = $2, is_private = TRUE WHERE slug = $1", slug, hash)
	if err != nil {
		r.logger.Error("Failed to set password", zap.String("slug", slug), zap.Error(err))
		return fmt.Errorf("set password: %w", err)
	}
	return requireRow(res)
}

// ClearPassword снимает пароль, признак приватности не меняется
func (r *PostgresRepository) ClearPassword(slug string) error {
	res, err := r.db.Exec("UPDATE links SET password = NULL WHERE slug = $1", slug)
	if err != nil {
		r.logger.Error("Failed to clear password", zap.String("slug", slug), zap.Error(err))
		return fmt.Errorf("clear password: %w", err)
	}
	return requireRow(res)
}

// Rekey создаёт копию ссылки под новым слагом в транзакции, исходная запись не меняется
func (r *PostgresRepository) Rekey(oldSlug, newSlug string) error {
	tx, err := r.db.Begin()
	if err != nil {
		r.logger.Error("Failed to start transaction", zap.Error(err))
		return fmt.Errorf("begin rekey: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			r.logger.Warn("Failed to rollback rekey transaction", zap.Error(err))
		}
	}()
	res, err := tx.Exec(
		"INSERT INTO links (slug, long_url, user_id, is_private, expiration_date, password, hop_counts) SELECT $2, long_url, user_id, TRUE, expiration_date, password, hop_counts FROM links WHERE slug = $1",
		oldSlug, newSlug,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugExists
		}
		r.logger.Error("Failed to rekey link", zap.String("old_slug", oldSlug), zap.String("new_slug", newSlug), zap.Error(err))
		return fmt.Errorf("rekey link: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rekey link: %w", err)
	}
	if rows == 0 {
		return ErrLinkNotFound
	}
	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit rekey transaction", zap.Error(err))
		return fmt.Errorf("commit rekey: %w", err)
	}
	return nil
}

// Delete удаляет ссылку по слагу
func (r *PostgresRepository) Delete(slug string) error {
	res, err := r.db.Exec("DELETE FROM links WHERE slug = $1", slug)
	if err != nil {
		r.logger.Error("Failed to delete link", zap.String("slug", slug), zap.Error(err))
		return fmt.Errorf("delete link: %w", err)
	}
	return requireRow(res)
}

// ListByUserID возвращает все ссылки, созданные пользователем
func (r *PostgresRepository) ListByUserID(userID int64) ([]models.Link, error) {
	rows, err := r.db.Query(
		"SELECT id, slug, long_url, user_id, is_private, expiration_date, password, hop_counts FROM links WHERE user_id = $1 ORDER BY id",
		userID,
	)
	if err != nil {
		r.logger.Error("Failed to list links by user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

// Count возвращает количество ссылок в хранилище
func (r *PostgresRepository) Count() (int64, error) {
	var count int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM links").Scan(&count); err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return count, nil
}

// rowScanner объединяет *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanLink читает одну запись ссылки с учётом NULL-полей
func scanLink(row rowScanner) (models.Link, error) {
	var link models.Link
	var exp sql.NullTime
	var pass sql.NullString
	err := row.Scan(&link.ID, &link.Slug, &link.LongURL, &link.UserID, &link.IsPrivate, &exp, &pass, &link.HopCounts)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Link{}, ErrLinkNotFound
	}
	if err != nil {
		return models.Link{}, fmt.Errorf("scan link: %w", err)
	}
	if exp.Valid {
		t := exp.Time.UTC()
		link.ExpirationDate = &t
	}
	if pass.Valid {
		link.PasswordHash = pass.String
	}
	return link, nil
}

// requireRow переводит отсутствие затронутых строк в ErrLinkNotFound
func requireRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrLinkNotFound
	}
	return nil
}

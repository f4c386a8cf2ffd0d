package app

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/tempizhere/linkcut/internal/repository"
)

// DB представляет подключение к базе данных
type DB struct {
	conn *sql.DB
}

// NewDB создаёт новое подключение к базе данных и готовит схему
func NewDB(dsn string) (repository.Database, error) {
	if dsn == "" {
		return nil, nil
	}

	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	_, err = conn.Exec(`
        CREATE TABLE IF NOT EXISTS links (
            id SERIAL PRIMARY KEY,
            slug VARCHAR(100) UNIQUE NOT NULL,
            long_url TEXT NOT NULL,
            user_id BIGINT NOT NULL DEFAULT 0,
            is_private BOOLEAN NOT NULL DEFAULT FALSE,
            expiration_date TIMESTAMP,
            password VARCHAR(100),
            hop_counts BIGINT NOT NULL DEFAULT 0
        )
    `)
	if err != nil {
		conn.Close()
		return nil, err
	}

	_, err = conn.Exec(`
        CREATE TABLE IF NOT EXISTS redirects_history (
            id SERIAL PRIMARY KEY,
            slug VARCHAR(100) NOT NULL,
            long_url TEXT NOT NULL,
            created_by VARCHAR(100) NOT NULL,
            location_city VARCHAR(100) NOT NULL,
            location_country VARCHAR(100) NOT NULL,
            time VARCHAR(25) NOT NULL
        )
    `)
	if err != nil {
		conn.Close()
		return nil, err
	}

	_, err = conn.Exec("CREATE INDEX IF NOT EXISTS redirects_history_slug_idx ON redirects_history (slug)")
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// Ping проверяет соединение с базой данных
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Close закрывает соединение с базой данных
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Exec выполняет SQL-запрос с аргументами
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query выполняет SQL-запрос и возвращает множество строк
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow выполняет SQL-запрос и возвращает одну строку
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// Begin начинает транзакцию
func (db *DB) Begin() (*sql.Tx, error) {
	if db == nil || db.conn == nil {
		return nil, sql.ErrConnDone
	}
	return db.conn.Begin()
}

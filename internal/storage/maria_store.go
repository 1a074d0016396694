package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MariaStore хранит свойства в MariaDB/MySQL
type MariaStore struct {
	sqlStore
}

// NewMariaStore подключается к базе и создаёт таблицу, если её нет.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaStore(ctx context.Context, dsn string) (*MariaStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS world_properties (
			prop_key   VARCHAR(255) PRIMARY KEY,
			prop_value MEDIUMTEXT   NOT NULL,
			updated_at TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE    CURRENT_TIMESTAMP
		) ENGINE=InnoDB
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания таблицы world_properties: %w", err)
	}

	return &MariaStore{sqlStore{
		db: db,
		upsert: `
		INSERT INTO world_properties (prop_key, prop_value)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE
			prop_value = VALUES(prop_value),
			updated_at = CURRENT_TIMESTAMP
	`,
	}}, nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// sqlStore общая часть SQL-бэкендов: таблица world_properties(prop_key, prop_value).
// Диалекты отличаются только запросом upsert.
type sqlStore struct {
	db     *sql.DB
	upsert string
}

func (s *sqlStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT prop_value FROM world_properties WHERE prop_key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("ошибка чтения свойства %s: %w", key, err)
	}
	return v, true, nil
}

func (s *sqlStore) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.upsert, key, value); err != nil {
		return fmt.Errorf("ошибка сохранения свойства %s: %w", key, err)
	}
	return nil
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM world_properties WHERE prop_key = ?`, key); err != nil {
		return fmt.Errorf("ошибка удаления свойства %s: %w", key, err)
	}
	return nil
}

// Close закрывает соединение с базой данных.
func (s *sqlStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

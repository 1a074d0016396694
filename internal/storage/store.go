// Package storage хранит свойства мира (аналог dynamic properties движка)
// в одном из бэкендов: память, BadgerDB, Redis, MariaDB/MySQL, SQLite, MongoDB.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/neonite-mod/internal/config"
)

// ErrEmptyKey возвращается при пустом ключе свойства
var ErrEmptyKey = errors.New("storage: empty property key")

// ErrClosed возвращается при обращении к закрытому хранилищу
var ErrClosed = errors.New("storage: store is closed")

// PropertyStore определяет интерфейс хранилища строковых свойств мира.
// Значения хранятся как есть; сериализацией занимаются репозитории поверх него.
type PropertyStore interface {
	// Get возвращает значение и false, если свойство не задано
	Get(ctx context.Context, key string) (string, bool, error)
	// Set создаёт или перезаписывает свойство
	Set(ctx context.Context, key, value string) error
	// Delete удаляет свойство; отсутствие свойства ошибкой не считается
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open создаёт хранилище по конфигурации
func Open(ctx context.Context, cfg config.StorageConfig) (PropertyStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "badger":
		return NewBadgerStore(cfg.Badger.Path, cfg.Badger.Compress)
	case "redis":
		return NewRedisStore(ctx, cfg.Redis)
	case "mysql":
		return NewMariaStore(ctx, cfg.MySQL.DSN)
	case "sqlite":
		return NewSQLiteStore(ctx, cfg.SQLite.Path)
	case "mongo":
		return NewMongoStore(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("неизвестный бэкенд хранилища: %q", cfg.Backend)
	}
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}

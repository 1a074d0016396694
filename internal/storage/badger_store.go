package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"

	"github.com/annel0/neonite-mod/internal/logging"
)

// Префикс значения: сырые байты или zstd
const (
	valueRaw  byte = 0
	valueZstd byte = 1
)

// BadgerStore хранит свойства во встроенной BadgerDB.
// При включённом сжатии значения пишутся через zstd; чтение понимает оба формата.
type BadgerStore struct {
	db       *badger.DB
	mutex    sync.RWMutex
	isReady  bool
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

// NewBadgerStore открывает (или создаёт) базу в каталоге path
func NewBadgerStore(path string, compress bool) (*BadgerStore, error) {
	if path == "" {
		return nil, fmt.Errorf("не задан путь BadgerDB")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог %s: %w", path, err)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	logging.Info("💾 BadgerDB открыта: %s (сжатие: %v)", path, compress)
	return &BadgerStore{db: db, isReady: true, compress: compress, encoder: enc, decoder: dec}, nil
}

func (s *BadgerStore) encode(value string) []byte {
	if !s.compress {
		return append([]byte{valueRaw}, value...)
	}
	return s.encoder.EncodeAll([]byte(value), []byte{valueZstd})
}

func (s *BadgerStore) decode(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("повреждённое значение: пустая запись")
	}
	switch raw[0] {
	case valueRaw:
		return string(raw[1:]), nil
	case valueZstd:
		out, err := s.decoder.DecodeAll(raw[1:], nil)
		if err != nil {
			return "", fmt.Errorf("распаковка zstd: %w", err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("повреждённое значение: неизвестный формат %d", raw[0])
	}
}

func (s *BadgerStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return "", false, ErrClosed
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("ошибка чтения %s: %w", key, err)
	}

	v, err := s.decode(raw)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", key, err)
	}
	return v, true, nil
}

func (s *BadgerStore) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrClosed
	}

	data := s.encode(value)
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	}); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrClosed
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("ошибка удаления %s: %w", key, err)
	}
	return nil
}

// Close закрывает базу; повторный вызов безопасен
func (s *BadgerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}
	s.isReady = false
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}

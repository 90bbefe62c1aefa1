// Package cache хранит JSON-блобы по строковому ключу и кэш треков поверх них
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNotFound возвращается, если ключа нет в хранилище
var ErrNotFound = errors.New("ключ не найден в кэше")

// Store - хранилище блобов по строковому ключу
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Поддерживаемые локальные бэкенды
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open открывает локальное хранилище выбранного типа в директории dir
func Open(backend, dir string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendFile:
		return OpenFileStore(dir)
	case BackendSQLite:
		return OpenSQLiteStore(dir)
	default:
		return nil, fmt.Errorf("неизвестный тип кэша: %s", backend)
	}
}

var unsafeKeyRe = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// FileStore хранит каждый ключ в отдельном файле
type FileStore struct {
	dir string
}

// OpenFileStore создает файловое хранилище, при необходимости создавая директорию
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории кэша: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, unsafeKeyRe.ReplaceAllString(key, "_")+".json")
}

// Get читает значение по ключу
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения файла кэша: %w", err)
	}
	return data, nil
}

// Put записывает значение атомарно через временный файл
func (s *FileStore) Put(_ context.Context, key string, value []byte) error {
	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка записи файла кэша: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка записи файла кэша: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("ошибка сохранения файла кэша: %w", err)
	}
	return nil
}

// Delete удаляет значение; отсутствие ключа не считается ошибкой
func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления файла кэша: %w", err)
	}
	return nil
}

// Close ничего не делает для файлового хранилища
func (s *FileStore) Close() error {
	return nil
}

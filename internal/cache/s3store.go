package cache

import (
	"context"
	"errors"

	"github.com/hazadus/go-jamplayer/internal/s3"
)

// S3Store хранит блобы объектами в бакете S3 с общим префиксом
type S3Store struct {
	client *s3.Client
	prefix string
}

// NewS3Store создает хранилище поверх клиента S3
func NewS3Store(client *s3.Client, prefix string) *S3Store {
	return &S3Store{client: client, prefix: prefix}
}

func (s *S3Store) objectKey(key string) string {
	return s.prefix + unsafeKeyRe.ReplaceAllString(key, "_") + ".json"
}

// Get скачивает значение по ключу
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.GetObject(ctx, s.objectKey(key))
	if errors.Is(err, s3.ErrNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

// Put загружает значение
func (s *S3Store) Put(ctx context.Context, key string, value []byte) error {
	return s.client.PutObject(ctx, s.objectKey(key), value)
}

// Delete удаляет значение
func (s *S3Store) Delete(ctx context.Context, key string) error {
	return s.client.DeleteObject(ctx, s.objectKey(key))
}

// Close ничего не делает: у клиента S3 нет открытых соединений для закрытия
func (s *S3Store) Close() error {
	return nil
}

// Copy переносит значение ключа из одного хранилища в другое
func Copy(ctx context.Context, from, to Store, key string) error {
	value, err := from.Get(ctx, key)
	if err != nil {
		return err
	}
	return to.Put(ctx, key, value)
}

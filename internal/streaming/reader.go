// Package streaming содержит компоненты для потокового чтения аудио по HTTP
package streaming

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// DefaultBufferSize - размер буфера потокового чтения
const DefaultBufferSize = 256 * 1024

// NewHTTPClient создает HTTP клиент без общего таймаута для длительного потокового чтения
func NewHTTPClient() *http.Client {
	return &http.Client{
		// Общего таймаута нет, ограничиваем только соединение и заголовки
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       300 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Reader представляет буферизованный поток для чтения данных порциями
type Reader struct {
	reader      *bufio.Reader
	resp        *http.Response
	contentType string
}

// NewReader открывает HTTP поток по URL
func NewReader(ctx context.Context, client *http.Client, url string, bufferSize int) (*Reader, error) {
	if client == nil {
		client = NewHTTPClient()
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Accept-Encoding", "identity") // Отключаем сжатие для потока
	req.Header.Set("Range", "bytes=0-")
	req.Header.Set("User-Agent", "jamplayer/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, fmt.Errorf("ошибка HTTP: %s", resp.Status)
	}

	return &Reader{
		reader:      bufio.NewReaderSize(resp.Body, bufferSize),
		resp:        resp,
		contentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Read реализует интерфейс io.Reader для потокового чтения
func (sr *Reader) Read(p []byte) (n int, err error) {
	return sr.reader.Read(p)
}

// ContentType возвращает Content-Type ответа
func (sr *Reader) ContentType() string {
	return sr.contentType
}

// Close закрывает соединение
func (sr *Reader) Close() error {
	return sr.resp.Body.Close()
}

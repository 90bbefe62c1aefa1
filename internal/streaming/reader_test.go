package streaming

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReaderStreamsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") != "bytes=0-" {
			t.Errorf("Ожидался заголовок Range, получено %q", r.Header.Get("Range"))
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("ID3 fake mp3 data"))
	}))
	defer server.Close()

	reader, err := NewReader(context.Background(), server.Client(), server.URL+"/a.mp3", 0)
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("Ошибка чтения: %v", err)
	}
	if string(body) != "ID3 fake mp3 data" {
		t.Errorf("Неожиданное содержимое: %s", body)
	}
	if reader.ContentType() != "audio/mpeg" {
		t.Errorf("Ожидался audio/mpeg, получено %s", reader.ContentType())
	}
}

func TestReaderRejectsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewReader(context.Background(), server.Client(), server.URL, 0)
	if err == nil {
		t.Fatal("Ожидалась ошибка для ответа 404")
	}
	if !strings.Contains(err.Error(), "ошибка HTTP") {
		t.Errorf("Неожиданное сообщение об ошибке: %v", err)
	}
}

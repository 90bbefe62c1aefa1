package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		contentType string
		want        string
		wantErr     bool
	}{
		{"mp3 по расширению", "/music/a.mp3", "", FormatMP3, false},
		{"wav по расширению", "/music/a.WAV", "", FormatWAV, false},
		{"поток без расширения", "/v3.0/tracks/file/", "audio/mpeg", FormatMP3, false},
		{"wav по Content-Type", "/stream", "audio/x-wav", FormatWAV, false},
		{"без подсказок", "/stream", "", FormatMP3, false},
		{"неизвестное расширение", "/music/a.ogg", "", "", true},
		{"неизвестный Content-Type", "/stream", "audio/ogg", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.path, tt.contentType)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("Ожидалась ErrUnsupportedFormat, получено: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Неожиданная ошибка: %v", err)
			}
			if got != tt.want {
				t.Errorf("Ожидался формат %s, получено %s", tt.want, got)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	if !IsSupported("song.MP3") {
		t.Error("MP3 должен поддерживаться")
	}
	if IsSupported("cover.jpg") {
		t.Error("JPG не должен поддерживаться")
	}
}

func TestLoadUnsupportedScheme(t *testing.T) {
	engine := NewBeepEngine(nil, 0)
	_, err := engine.Load(context.Background(), "ftp://example.com/a.mp3")
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("Ожидалась ErrUnsupportedScheme, получено: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	engine := NewBeepEngine(nil, 0)
	_, err := engine.Load(context.Background(), "file:///non/existent/track.mp3")
	if err == nil {
		t.Fatal("Ожидалась ошибка для отсутствующего файла")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Ожидалась ошибка отсутствия файла, получено: %v", err)
	}
}

func TestLoadInvalidMP3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.mp3")
	if err := os.WriteFile(path, []byte("это не mp3"), 0644); err != nil {
		t.Fatalf("Ошибка записи файла: %v", err)
	}

	engine := NewBeepEngine(nil, 0)
	_, err := engine.Load(context.Background(), "file://"+path)
	if err == nil {
		t.Fatal("Ожидалась ошибка декодирования")
	}
	if !strings.Contains(err.Error(), "MP3") {
		t.Errorf("Неожиданное сообщение об ошибке: %v", err)
	}
}

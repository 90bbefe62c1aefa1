package audio

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

// Поддерживаемые форматы
const (
	FormatMP3 = "mp3"
	FormatWAV = "wav"
)

// SupportedExtensions возвращает расширения файлов, которые умеет декодировать движок
func SupportedExtensions() []string {
	return []string{".mp3", ".wav"}
}

// IsSupported проверяет, поддерживается ли файл по расширению
func IsSupported(filePath string) bool {
	ext := strings.ToLower(path.Ext(filePath))
	for _, e := range SupportedExtensions() {
		if ext == e {
			return true
		}
	}
	return false
}

// DetectFormat выбирает декодер по расширению пути или Content-Type.
// Потоки без расширения (например, ссылки каталога) считаются MP3.
func DetectFormat(filePath, contentType string) (string, error) {
	switch ext := strings.ToLower(path.Ext(filePath)); ext {
	case ".mp3":
		return FormatMP3, nil
	case ".wav", ".wave":
		return FormatWAV, nil
	case "":
	default:
		if contentType == "" {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
		}
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "wav"):
		return FormatWAV, nil
	case ct == "", strings.Contains(ct, "mpeg"), strings.Contains(ct, "mp3"),
		strings.Contains(ct, "octet-stream"):
		return FormatMP3, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
	}
}

// Decode декодирует поток в указанном формате
func Decode(rc io.ReadCloser, format string) (beep.StreamSeekCloser, beep.Format, error) {
	switch format {
	case FormatMP3:
		s, f, err := mp3.Decode(rc)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("ошибка декодирования MP3: %w", err)
		}
		return s, f, nil
	case FormatWAV:
		s, f, err := wav.Decode(rc)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("ошибка декодирования WAV: %w", err)
		}
		return s, f, nil
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

package source

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// YouTube получает ссылки на аудиопотоки видео
type YouTube struct {
	client youtube.Client
}

// NewYouTube создает клиент YouTube
func NewYouTube() *YouTube {
	return &YouTube{}
}

// StreamURL возвращает прямую ссылку на лучший аудиоформат видео
func (y *YouTube) StreamURL(ctx context.Context, videoID string) (string, error) {
	id, err := ExtractVideoID(videoID)
	if err != nil {
		return "", err
	}

	video, err := y.client.GetVideoContext(ctx, id)
	if err != nil {
		return "", fmt.Errorf("ошибка получения информации о видео: %w", err)
	}

	format := BestAudioFormat(video.Formats)
	if format == nil {
		return "", fmt.Errorf("аудио формат не найден для видео %s", id)
	}

	u, err := y.client.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("ошибка получения ссылки на поток: %w", err)
	}
	return u, nil
}

var (
	videoURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`(?:youtube\.com/embed/)([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`(?:youtube\.com/v/)([a-zA-Z0-9_-]{11})`),
	}
	videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
)

// ExtractVideoID извлекает ID видео из URL или возвращает уже готовый ID
func ExtractVideoID(s string) (string, error) {
	for _, re := range videoURLPatterns {
		if m := re.FindStringSubmatch(s); len(m) > 1 {
			return m[1], nil
		}
	}
	if videoIDPattern.MatchString(s) {
		return s, nil
	}
	return "", fmt.Errorf("не удалось извлечь ID видео из %q", s)
}

// BestAudioFormat выбирает аудиоформат с наибольшим битрейтом, предпочитая mp4/m4a
func BestAudioFormat(formats youtube.FormatList) *youtube.Format {
	audio := formats.WithAudioChannels()
	if len(audio) == 0 {
		return nil
	}

	isMP4 := func(f *youtube.Format) bool {
		return strings.Contains(f.MimeType, "mp4") || strings.Contains(f.MimeType, "m4a")
	}

	best := &audio[0]
	for i := range audio {
		f := &audio[i]
		switch {
		case isMP4(f) && !isMP4(best):
			best = f
		case isMP4(f) == isMP4(best) && f.Bitrate > best.Bitrate:
			best = f
		}
	}
	return best
}

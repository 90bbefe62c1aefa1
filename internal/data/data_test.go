package data

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAudioRefUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantURI string
		wantLoc *Locator
	}{
		{
			name:    "голый URI",
			input:   `"https://example.com/a.mp3"`,
			wantURI: "https://example.com/a.mp3",
		},
		{
			name:    "объект с uri",
			input:   `{"uri": "file:///music/a.mp3"}`,
			wantLoc: &Locator{URI: "file:///music/a.mp3"},
		},
		{
			name:    "локатор youtube",
			input:   `{"kind": "youtube", "id": "dQw4w9WgXcQ"}`,
			wantLoc: &Locator{Kind: LocatorYouTube, ID: "dQw4w9WgXcQ"},
		},
		{
			name:  "null",
			input: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref AudioRef
			if err := json.Unmarshal([]byte(tt.input), &ref); err != nil {
				t.Fatalf("Ошибка разбора: %v", err)
			}
			if ref.URI != tt.wantURI {
				t.Errorf("Ожидался URI %q, получено %q", tt.wantURI, ref.URI)
			}
			if (ref.Locator == nil) != (tt.wantLoc == nil) {
				t.Fatalf("Ожидался локатор %v, получено %v", tt.wantLoc, ref.Locator)
			}
			if tt.wantLoc != nil && *ref.Locator != *tt.wantLoc {
				t.Errorf("Ожидался локатор %+v, получено %+v", *tt.wantLoc, *ref.Locator)
			}
		})
	}
}

func TestAudioRefMarshalKeepsShape(t *testing.T) {
	b, err := json.Marshal(URIRef("https://example.com/a.mp3"))
	if err != nil {
		t.Fatalf("Ошибка сериализации: %v", err)
	}
	if string(b) != `"https://example.com/a.mp3"` {
		t.Errorf("Голый URI должен сериализоваться строкой, получено %s", b)
	}

	b, err = json.Marshal(FileRef("/music/a.mp3"))
	if err != nil {
		t.Fatalf("Ошибка сериализации: %v", err)
	}
	if string(b) != `{"kind":"file","path":"/music/a.mp3"}` {
		t.Errorf("Неожиданная сериализация локатора: %s", b)
	}
}

func TestAudioRefIsZero(t *testing.T) {
	if !(AudioRef{}).IsZero() {
		t.Error("Пустая ссылка должна быть нулевой")
	}
	if !(AudioRef{URI: "   "}).IsZero() {
		t.Error("Ссылка из пробелов должна быть нулевой")
	}
	if !(AudioRef{Locator: &Locator{Kind: LocatorFile}}).IsZero() {
		t.Error("Локатор без пути должен быть нулевым")
	}
	if FileRef("/a.mp3").IsZero() {
		t.Error("Ссылка на файл не должна быть нулевой")
	}
}

func TestNormalizeTrack(t *testing.T) {
	track, ok := NormalizeTrack(Track{
		ID:    " 42 ",
		Audio: URIRef("https://example.com/a.mp3"),
		Image: "not a url",
	})
	if !ok {
		t.Fatal("Трек с корректным URI должен быть пригоден")
	}
	if track.ID != "42" {
		t.Errorf("Ожидался ID 42, получено %q", track.ID)
	}
	if track.Name != DefaultName || track.ArtistName != DefaultArtist {
		t.Errorf("Ожидались значения по умолчанию, получено %q / %q", track.Name, track.ArtistName)
	}
	if track.Source != SourceRemote {
		t.Errorf("Ожидался источник remote, получено %q", track.Source)
	}
	if track.Image != "" {
		t.Errorf("Некорректная обложка должна быть сброшена, получено %q", track.Image)
	}

	if _, ok := NormalizeTrack(Track{ID: "1", Audio: URIRef("relative/path.mp3")}); ok {
		t.Error("Относительный URI не должен быть пригоден")
	}
	if _, ok := NormalizeTrack(Track{ID: "1"}); ok {
		t.Error("Трек без аудио не должен быть пригоден")
	}
	if _, ok := NormalizeTrack(Track{Audio: URIRef("https://example.com/a.mp3")}); ok {
		t.Error("Трек без ID не должен быть пригоден")
	}
}

func TestIsAbsoluteURL(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://example.com/a.mp3", true},
		{"http://localhost:8080/a.mp3", true},
		{"file:///music/a.mp3", true},
		{"file://", false},
		{"/music/a.mp3", false},
		{"example.com/a.mp3", false},
		{"https://", false},
		{"https://exa mple.com/a.mp3", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsAbsoluteURL(tt.input); got != tt.want {
			t.Errorf("IsAbsoluteURL(%q) = %v, ожидалось %v", tt.input, got, tt.want)
		}
	}
}

func TestValidImageURI(t *testing.T) {
	if !ValidImageURI("https://usercontent.jamendo.com/?type=album&id=1") {
		t.Error("https-обложка должна быть валидной")
	}
	if ValidImageURI("data:image/png;base64,AAAA") {
		t.Error("data URI не должен считаться валидной обложкой")
	}
}

func TestTrackLength(t *testing.T) {
	remote := Track{Duration: 180, Source: SourceRemote}
	if remote.Length() != 3*time.Minute {
		t.Errorf("Ожидалось 3m, получено %v", remote.Length())
	}
	local := Track{Duration: 1500, Source: SourceLocal}
	if local.Length() != 1500*time.Millisecond {
		t.Errorf("Ожидалось 1.5s, получено %v", local.Length())
	}
}

func TestMergeTracksIsIdempotent(t *testing.T) {
	a := Track{ID: "a", Name: "A"}
	b := Track{ID: "b", Name: "B"}

	merged := MergeTracks(nil, []Track{a, b})
	merged = MergeTracks(merged, []Track{a})
	merged = MergeTracks(merged, []Track{a})

	if len(merged) != 2 {
		t.Fatalf("Ожидалось 2 трека, получено %d", len(merged))
	}

	updated := Track{ID: "a", Name: "A (remaster)"}
	merged = MergeTracks(merged, []Track{updated})
	if merged[0].Name != "A (remaster)" {
		t.Errorf("Существующая запись должна обновиться, получено %q", merged[0].Name)
	}
	if merged[1].ID != "b" {
		t.Errorf("Порядок должен сохраниться, получено %q", merged[1].ID)
	}
}

func TestIndexOfAndTrackByID(t *testing.T) {
	list := []Track{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	if IndexOf(list, "c") != 2 {
		t.Error("Ожидался индекс 2")
	}
	if IndexOf(list, "z") != -1 {
		t.Error("Ожидался индекс -1 для отсутствующего трека")
	}
	if _, err := TrackByID(list, "z"); err == nil {
		t.Error("Ожидалась ошибка для отсутствующего трека")
	}
}

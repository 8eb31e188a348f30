package captions

import (
	"strings"
	"testing"

	"github.com/kkdai/youtube/v2"
)

func TestParseVideoURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantID  string
		wantErr bool
	}{
		{
			name:   "standard watch URL",
			input:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "short URL",
			input:  "https://youtu.be/dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "watch URL with playlist params",
			input:  "https://youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc123",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "embed URL",
			input:  "https://www.youtube.com/embed/dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "shorts URL",
			input:  "https://www.youtube.com/shorts/dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "bare video ID",
			input:  "dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:   "whitespace around URL",
			input:  "  https://youtu.be/dQw4w9WgXcQ  ",
			wantID: "dQw4w9WgXcQ",
		},
		{
			name:    "not a YouTube URL",
			input:   "https://vimeo.com/12345",
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "too-short ID",
			input:   "abc123",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, id, err := ParseVideoURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got id=%q", id)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
			if url != "https://www.youtube.com/watch?v="+tt.wantID {
				t.Errorf("unexpected canonical url: %q", url)
			}
		})
	}
}

func TestParseTimedText(t *testing.T) {
	raw := `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.5" dur="2.1">Hello, welcome to the video.</text>
  <text start="2.8" dur="3.0">Today we&amp;#39;re talking about Go.</text>
  <text start="6.0" dur="1.5">   </text>
  <text start="7.5" dur="2.0">Let&amp;quot;s begin.</text>
</transcript>`

	got, err := ParseTimedText(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "Hello, welcome to the video.") {
		t.Errorf("missing first cue in %q", got)
	}
	if strings.Contains(got, "&") && strings.Contains(got, "amp") {
		t.Errorf("entities not decoded: %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Errorf("blank cue left extra whitespace: %q", got)
	}
}

func TestParseTimedTextInvalid(t *testing.T) {
	if _, err := ParseTimedText("not xml at all <<<"); err == nil {
		t.Fatal("expected error for invalid XML")
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name: "srt content",
			input: "1\n00:00:01,000 --> 00:00:04,000\nHello there.\n\n2\n00:00:04,500 --> 00:00:08,000\nWelcome back.",
			want:  "Hello there. Welcome back.",
		},
		{
			name:  "vtt header and tags",
			input: "WEBVTT\n\n00:00:01.000 --> 00:00:04.000\n<c>Hello</c> <b>world</b>",
			want:  "Hello world",
		},
		{
			name:  "consecutive duplicate lines",
			input: "same line\nsame line\nnext line",
			want:  "same line next line",
		},
		{
			name:  "sound artifacts removed",
			input: "[Music]\nactual words\n[Applause]",
			want:  "actual words",
		},
		{
			name:  "whitespace collapsed",
			input: "too   many    spaces",
			want:  "too many spaces",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPickTrack(t *testing.T) {
	manualEN := youtube.CaptionTrack{LanguageCode: "en"}
	autoEN := youtube.CaptionTrack{LanguageCode: "en", Kind: "asr"}
	manualFR := youtube.CaptionTrack{LanguageCode: "fr"}

	tests := []struct {
		name       string
		tracks     []youtube.CaptionTrack
		lang       string
		wantLang   string
		wantSource string
	}{
		{
			name:       "manual track preferred over auto",
			tracks:     []youtube.CaptionTrack{autoEN, manualEN},
			lang:       "en",
			wantLang:   "en",
			wantSource: "manual",
		},
		{
			name:       "auto track when no manual in language",
			tracks:     []youtube.CaptionTrack{manualFR, autoEN},
			lang:       "en",
			wantLang:   "en",
			wantSource: "auto",
		},
		{
			name:       "first track when language missing",
			tracks:     []youtube.CaptionTrack{manualFR},
			lang:       "en",
			wantLang:   "fr",
			wantSource: "manual",
		},
		{
			name:       "first auto track reported as auto",
			tracks:     []youtube.CaptionTrack{{LanguageCode: "de", Kind: "asr"}},
			lang:       "en",
			wantLang:   "de",
			wantSource: "auto",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, source := pickTrack(tt.tracks, tt.lang)
			if track.LanguageCode != tt.wantLang {
				t.Errorf("language = %q, want %q", track.LanguageCode, tt.wantLang)
			}
			if source != tt.wantSource {
				t.Errorf("source = %q, want %q", source, tt.wantSource)
			}
		})
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"one", 1},
		{"two words", 2},
		{"  padded   out  ", 2},
	}
	for _, tt := range tests {
		if got := CountWords(tt.input); got != tt.want {
			t.Errorf("CountWords(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

package insight

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	captions := "the speaker explains goroutines and channels"

	kinds := []string{"summary", "key_points", "flashcards", "quiz", "sentiment", "topics"}
	for _, kind := range kinds {
		t.Run(kind, func(t *testing.T) {
			prompt, err := buildPrompt(kind, captions)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(prompt, captions) {
				t.Errorf("prompt does not embed the captions")
			}
		})
	}

	if _, err := buildPrompt("poems", captions); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestBuildPromptTruncatesLongCaptions(t *testing.T) {
	long := strings.Repeat("word ", 10000) // 50k chars
	prompt, err := buildPrompt("summary", long)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, "[Captions truncated due to length...]") {
		t.Error("long captions were not truncated")
	}
	if len(prompt) > maxCaptionChars+500 {
		t.Errorf("prompt length %d exceeds budget", len(prompt))
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string // "" means nil expected
	}{
		{
			name:    "bare object",
			content: `{"points": ["a", "b"]}`,
			want:    `{"points": ["a", "b"]}`,
		},
		{
			name:    "object in markdown fence",
			content: "Here you go:\n```json\n{\"sentiment\": \"positive\"}\n```\nHope that helps!",
			want:    `{"sentiment": "positive"}`,
		},
		{
			name:    "array response",
			content: `[{"question": "q", "answer": "a"}]`,
			want:    `[{"question": "q", "answer": "a"}]`,
		},
		{
			name:    "braces inside strings",
			content: `prefix {"text": "a { tricky } value"} suffix`,
			want:    `{"text": "a { tricky } value"}`,
		},
		{
			name:    "plain prose",
			content: "This video is about Go concurrency patterns.",
			want:    "",
		},
		{
			name:    "unbalanced braces",
			content: `{"broken": `,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractJSON(tt.content)
			if tt.want == "" {
				if got != nil {
					t.Fatalf("expected nil, got %s", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected JSON, got nil")
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			if !json.Valid(got) {
				t.Errorf("extracted JSON is not valid: %s", got)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	short := "short captions"
	if truncate(short) != short {
		t.Error("short captions should pass through unchanged")
	}

	long := strings.Repeat("x", maxCaptionChars+100)
	got := truncate(long)
	if !strings.HasSuffix(got, "[Captions truncated due to length...]") {
		t.Error("missing truncation marker")
	}
}

func TestIsConfigured(t *testing.T) {
	g := &Generator{defaultModel: "gemini-1.5-flash-latest"}
	if g.IsConfigured() {
		t.Error("generator without client should not be configured")
	}
}

package speech

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestChunkText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{
			name:  "fits in one chunk",
			text:  "short summary text",
			limit: 200,
			want:  []string{"short summary text"},
		},
		{
			name:  "splits on word boundary",
			text:  "alpha beta gamma",
			limit: 10,
			want:  []string{"alpha beta", "gamma"},
		},
		{
			name:  "word exactly at limit",
			text:  "abcde fghij",
			limit: 5,
			want:  []string{"abcde", "fghij"},
		},
		{
			name:  "oversized word kept whole",
			text:  "a supercalifragilistic b",
			limit: 10,
			want:  []string{"a", "supercalifragilistic", "b"},
		},
		{
			name:  "collapses internal whitespace",
			text:  "one\n\ttwo   three",
			limit: 200,
			want:  []string{"one two three"},
		},
		{
			name:  "empty input",
			text:  "   ",
			limit: 200,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkText(tt.text, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d chunks %v, want %d %v", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestChunkTextNeverSplitsWords(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 50)
	chunks := ChunkText(text, maxChunkChars)

	for i, chunk := range chunks {
		if len(chunk) > maxChunkChars {
			t.Errorf("chunk %d is %d chars, over the limit", i, len(chunk))
		}
		for _, word := range strings.Fields(chunk) {
			switch word {
			case "lorem", "ipsum", "dolor", "sit", "amet":
			default:
				t.Fatalf("chunk %d contains split word %q", i, word)
			}
		}
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSynthesizer(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Synthesize(context.Background(), "   ", "en"); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSynthesizer(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	name := "render.mp3"
	if err := os.WriteFile(filepath.Join(dir, name), []byte("mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(name); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Error("file still exists after remove")
	}

	// Removing a missing file is fine
	if err := s.Remove("never-existed.mp3"); err != nil {
		t.Errorf("remove of missing file returned error: %v", err)
	}

	// Path traversal in a stored filename must stay inside the audio dir
	if got := s.FilePath("../../etc/passwd"); filepath.Dir(got) != dir {
		t.Errorf("FilePath escaped the audio dir: %q", got)
	}
}

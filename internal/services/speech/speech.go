// Package speech renders text to MP3 audio via the Google Translate TTS
// endpoint. The endpoint accepts at most ~200 characters per request, so
// long text is split on word boundaries and the MP3 payloads are
// concatenated. MPEG audio frames are self-contained, which makes naive
// concatenation valid output.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxChunkChars is the per-request text limit of the TTS endpoint.
const maxChunkChars = 200

const ttsEndpoint = "https://translate.google.com/translate_tts"

// Synthesizer renders text to MP3 files under a local audio directory.
type Synthesizer struct {
	audioDir   string
	httpClient *http.Client
}

// NewSynthesizer creates a Synthesizer storing files under audioDir.
// The directory is created if missing.
func NewSynthesizer(audioDir string) (*Synthesizer, error) {
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}
	return &Synthesizer{
		audioDir: audioDir,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Render holds the outcome of a synthesis.
type Render struct {
	Filename string
	ByteSize int64
}

// Synthesize renders text to an MP3 file and returns its filename.
func (s *Synthesizer) Synthesize(ctx context.Context, text, lang string) (*Render, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("no text to synthesize")
	}
	if lang == "" {
		lang = "en"
	}

	chunks := ChunkText(text, maxChunkChars)
	log.Printf("🔊 Speech: synthesizing %d chunk(s) in %q", len(chunks), lang)

	var audio bytes.Buffer
	for i, chunk := range chunks {
		payload, err := s.fetchChunk(ctx, chunk, lang)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		audio.Write(payload)
	}

	filename := uuid.NewString() + ".mp3"
	path := filepath.Join(s.audioDir, filename)
	if err := os.WriteFile(path, audio.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write audio file: %w", err)
	}

	return &Render{Filename: filename, ByteSize: int64(audio.Len())}, nil
}

// fetchChunk requests one MP3 payload from the TTS endpoint.
func (s *Synthesizer) fetchChunk(ctx context.Context, text, lang string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", lang)
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ttsEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS endpoint returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read TTS response: %w", err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("TTS endpoint returned an empty payload")
	}
	return payload, nil
}

// FilePath returns the absolute path of a stored render.
func (s *Synthesizer) FilePath(filename string) string {
	return filepath.Join(s.audioDir, filepath.Base(filename))
}

// Remove deletes a stored render. Missing files are not an error; stale
// rows can outlive their files.
func (s *Synthesizer) Remove(filename string) error {
	err := os.Remove(s.FilePath(filename))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove audio file: %w", err)
	}
	return nil
}

// ChunkText splits text into pieces of at most limit characters without
// splitting words. A single word longer than the limit becomes its own
// chunk rather than being broken apart.
func ChunkText(text string, limit int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	for _, word := range words {
		switch {
		case current.Len() == 0:
			current.WriteString(word)
		case current.Len()+1+len(word) <= limit:
			current.WriteString(" ")
			current.WriteString(word)
		default:
			chunks = append(chunks, current.String())
			current.Reset()
			current.WriteString(word)
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

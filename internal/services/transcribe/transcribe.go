// Package transcribe provides the audio fallback for captionless videos:
// download the audio stream and transcribe it with OpenAI's Whisper API.
//
// The Whisper API accepts multipart form uploads and returns transcribed
// text. Max file size is 25MB, which covers roughly an hour of low-bitrate
// YouTube audio.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
)

// maxUploadBytes is the Whisper API file size limit.
const maxUploadBytes = 25 * 1024 * 1024

// Result holds the output from a Whisper API call.
type Result struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// Transcriber downloads a video's audio stream and sends it to Whisper.
type Transcriber struct {
	apiKey     string
	ytClient   *youtube.Client
	httpClient *http.Client
}

// NewTranscriber creates a Transcriber with the given OpenAI API key.
// An empty key disables the fallback (IsConfigured reports false).
func NewTranscriber(apiKey string) *Transcriber {
	return &Transcriber{
		apiKey:   apiKey,
		ytClient: &youtube.Client{},
		httpClient: &http.Client{
			// Whisper can take a while for long audio files
			Timeout: 5 * time.Minute,
		},
	}
}

// IsConfigured returns true if the OpenAI API key is set.
func (t *Transcriber) IsConfigured() bool {
	return t.apiKey != ""
}

// Transcribe resolves a video by ID and transcribes its audio stream.
func (t *Transcriber) Transcribe(ctx context.Context, videoID string) (*Result, error) {
	video, err := t.ytClient.GetVideoContext(ctx, "https://www.youtube.com/watch?v="+videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve video: %w", err)
	}
	return t.TranscribeVideo(ctx, video)
}

// TranscribeVideo downloads the smallest usable audio stream for the video
// and transcribes it. The video must already be resolved so the caller can
// reuse its metadata.
func (t *Transcriber) TranscribeVideo(ctx context.Context, video *youtube.Video) (*Result, error) {
	if !t.IsConfigured() {
		return nil, fmt.Errorf("OpenAI API key not configured; set OPENAI_API_KEY environment variable")
	}

	format := pickAudioFormat(video.Formats)
	if format == nil {
		return nil, fmt.Errorf("no audio stream available for video %s", video.ID)
	}

	log.Printf("🎧 Transcribe: downloading audio stream (itag %d) for video %s", format.ItagNo, video.ID)
	stream, size, err := t.ytClient.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	defer stream.Close()

	if size > maxUploadBytes {
		return nil, fmt.Errorf("audio stream is %d bytes, over the 25MB transcription limit", size)
	}

	// Buffer the whole stream; the upload needs a fixed-length body anyway.
	audio, err := io.ReadAll(io.LimitReader(stream, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to download audio stream: %w", err)
	}
	if len(audio) > maxUploadBytes {
		return nil, fmt.Errorf("audio stream exceeds the 25MB transcription limit")
	}

	return t.transcribe(ctx, bytes.NewReader(audio), video.ID+".m4a")
}

// pickAudioFormat selects an audio-only format, preferring audio/mp4 at the
// lowest bitrate that still transcribes well.
func pickAudioFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 {
			continue
		}
		// Skip muxed video+audio formats, the audio-only ones are smaller
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if best == nil {
			best = f
			continue
		}
		bestMP4 := strings.HasPrefix(best.MimeType, "audio/mp4")
		fMP4 := strings.HasPrefix(f.MimeType, "audio/mp4")
		if fMP4 && !bestMP4 {
			best = f
			continue
		}
		if fMP4 == bestMP4 && f.Bitrate < best.Bitrate {
			best = f
		}
	}
	return best
}

// whisperResponse is the JSON shape returned when response_format is
// "verbose_json".
type whisperResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// transcribe sends an audio payload to the Whisper API.
func (t *Transcriber) transcribe(ctx context.Context, audioData io.Reader, filename string) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, audioData); err != nil {
		return nil, fmt.Errorf("failed to copy audio data: %w", err)
	}

	if err := writer.WriteField("model", "whisper-1"); err != nil {
		return nil, fmt.Errorf("failed to write model field: %w", err)
	}
	// Verbose JSON carries detected language and duration
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("failed to write response_format field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/audio/transcriptions", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Whisper API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Whisper API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var whisperResp whisperResponse
	if err := json.Unmarshal(respBody, &whisperResp); err != nil {
		return nil, fmt.Errorf("failed to parse Whisper response: %w", err)
	}

	return &Result{
		Text:     whisperResp.Text,
		Language: whisperResp.Language,
		Duration: whisperResp.Duration,
	}, nil
}

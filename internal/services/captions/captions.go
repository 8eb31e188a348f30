// Package captions fetches and cleans YouTube caption tracks.
//
// The fetcher resolves video metadata with the kkdai/youtube client, then
// picks a caption track using a fallback ladder: manual track in the
// requested language, auto-generated track in that language, first
// available track. Track content is YouTube's timedtext XML.
package captions

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
)

// Fetcher defines the interface for caption retrieval.
// Defined here, where it is consumed by the worker and handlers.
type Fetcher interface {
	Fetch(ctx context.Context, videoID, lang string) (*Result, error)
}

// Result holds the fetched captions and video metadata.
type Result struct {
	VideoID     string
	Title       string
	ChannelName string
	Duration    int // seconds
	Language    string
	Source      string // "manual" or "auto"
	Captions    string
	WordCount   int
}

// ErrNoCaptions is returned when a video has no caption tracks at all.
// Callers use this to decide whether the audio-transcription fallback
// should run.
var ErrNoCaptions = fmt.Errorf("no caption tracks available")

// YouTubeFetcher retrieves captions via the YouTube innertube API.
type YouTubeFetcher struct {
	client *youtube.Client
	http   *http.Client
}

// NewFetcher creates a caption fetcher.
func NewFetcher() *YouTubeFetcher {
	return &YouTubeFetcher{
		client: &youtube.Client{},
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Video exposes the resolved video metadata for callers that also need the
// stream formats (the audio-transcription fallback).
func (f *YouTubeFetcher) Video(ctx context.Context, videoID string) (*youtube.Video, error) {
	video, err := f.client.GetVideoContext(ctx, "https://www.youtube.com/watch?v="+videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve video: %w", err)
	}
	return video, nil
}

// Fetch retrieves and cleans captions for a video.
func (f *YouTubeFetcher) Fetch(ctx context.Context, videoID, lang string) (*Result, error) {
	video, err := f.Video(ctx, videoID)
	if err != nil {
		return nil, err
	}

	result := &Result{
		VideoID:     videoID,
		Title:       video.Title,
		ChannelName: video.Author,
		Duration:    int(video.Duration.Seconds()),
	}

	if len(video.CaptionTracks) == 0 {
		return result, ErrNoCaptions
	}

	track, source := pickTrack(video.CaptionTracks, lang)
	log.Printf("📝 Captions: using %s track %q for video %s", source, track.LanguageCode, videoID)

	raw, err := f.fetchTrack(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch caption track: %w", err)
	}

	cleaned := Clean(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("caption track %q is empty", track.LanguageCode)
	}

	result.Language = track.LanguageCode
	result.Source = source
	result.Captions = cleaned
	result.WordCount = CountWords(cleaned)
	return result, nil
}

// pickTrack applies the fallback ladder and reports whether the chosen
// track is manual or auto-generated ("asr").
func pickTrack(tracks []youtube.CaptionTrack, lang string) (youtube.CaptionTrack, string) {
	// Manual track in the requested language
	for _, t := range tracks {
		if t.LanguageCode == lang && t.Kind != "asr" {
			return t, "manual"
		}
	}
	// Auto-generated track in the requested language
	for _, t := range tracks {
		if t.LanguageCode == lang && t.Kind == "asr" {
			return t, "auto"
		}
	}
	// Whatever exists
	first := tracks[0]
	source := "manual"
	if first.Kind == "asr" {
		source = "auto"
	}
	return first, source
}

// timedText mirrors YouTube's caption XML:
//
//	<transcript>
//	  <text start="1.0" dur="3.2">Hello, welcome to the video.</text>
//	</transcript>
type timedText struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Text  string `xml:",chardata"`
	} `xml:"text"`
}

func (f *YouTubeFetcher) fetchTrack(ctx context.Context, baseURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("caption endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return ParseTimedText(string(body))
}

// ParseTimedText extracts the spoken text from caption XML, decoding the
// HTML entities YouTube double-escapes inside cue text.
func ParseTimedText(raw string) (string, error) {
	var tt timedText
	if err := xml.Unmarshal([]byte(raw), &tt); err != nil {
		return "", fmt.Errorf("failed to parse caption XML: %w", err)
	}

	var b strings.Builder
	for _, t := range tt.Texts {
		text := decodeEntities(t.Text)
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

func decodeEntities(s string) string {
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

var (
	cueIndexRegex  = regexp.MustCompile(`^\d+$`)
	timestampRegex = regexp.MustCompile(`\d{2}:\d{2}:\d{2}[.,]\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}[.,]\d{3}`)
	markupRegex    = regexp.MustCompile(`<[^>]+>`)
	spaceRegex     = regexp.MustCompile(`\s+`)
)

// Clean normalizes caption text. It accepts either plain cue text or full
// SRT/VTT content: cue indices, timestamp lines, and markup tags are
// stripped, consecutive duplicate lines are dropped, and whitespace is
// collapsed.
func Clean(text string) string {
	lines := strings.Split(text, "\n")
	var kept []string
	prev := ""

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || line == "WEBVTT" || cueIndexRegex.MatchString(line) ||
			timestampRegex.MatchString(line) {
			continue
		}

		line = markupRegex.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" || line == prev {
			continue
		}
		prev = line
		kept = append(kept, line)
	}

	out := strings.Join(kept, " ")

	// Sound-effect artifacts common in auto captions
	out = strings.ReplaceAll(out, "[Music]", "")
	out = strings.ReplaceAll(out, "[Applause]", "")
	out = strings.ReplaceAll(out, "[Laughter]", "")

	return strings.TrimSpace(spaceRegex.ReplaceAllString(out, " "))
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Fields(text))
}

// ParseVideoURL extracts the video ID from YouTube URL formats:
//
//   - https://www.youtube.com/watch?v=VIDEO_ID
//   - https://youtu.be/VIDEO_ID
//   - https://www.youtube.com/embed/VIDEO_ID
//   - https://www.youtube.com/shorts/VIDEO_ID
//   - the bare 11-character video ID
//
// Returns the canonical watch URL and the video ID.
func ParseVideoURL(input string) (string, string, error) {
	input = strings.TrimSpace(input)

	videoIDRegex := regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	if videoIDRegex.MatchString(input) {
		return "https://www.youtube.com/watch?v=" + input, input, nil
	}

	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/)([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`(?:youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`),
	}

	for _, pattern := range patterns {
		matches := pattern.FindStringSubmatch(input)
		if len(matches) >= 2 {
			videoID := matches[1]
			return "https://www.youtube.com/watch?v=" + videoID, videoID, nil
		}
	}

	return "", "", fmt.Errorf("invalid YouTube URL or video ID: %s", input)
}

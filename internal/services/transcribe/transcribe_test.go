package transcribe

import (
	"testing"

	"github.com/kkdai/youtube/v2"
)

func TestPickAudioFormat(t *testing.T) {
	tests := []struct {
		name     string
		formats  youtube.FormatList
		wantItag int
		wantNil  bool
	}{
		{
			name: "prefers audio mp4 over webm",
			formats: youtube.FormatList{
				{ItagNo: 251, MimeType: "audio/webm; codecs=\"opus\"", AudioChannels: 2, Bitrate: 120000},
				{ItagNo: 140, MimeType: "audio/mp4; codecs=\"mp4a.40.2\"", AudioChannels: 2, Bitrate: 130000},
			},
			wantItag: 140,
		},
		{
			name: "lowest bitrate within same container",
			formats: youtube.FormatList{
				{ItagNo: 140, MimeType: "audio/mp4; codecs=\"mp4a.40.2\"", AudioChannels: 2, Bitrate: 130000},
				{ItagNo: 139, MimeType: "audio/mp4; codecs=\"mp4a.40.5\"", AudioChannels: 2, Bitrate: 48000},
			},
			wantItag: 139,
		},
		{
			name: "skips video-only and muxed formats",
			formats: youtube.FormatList{
				{ItagNo: 137, MimeType: "video/mp4; codecs=\"avc1\"", AudioChannels: 0},
				{ItagNo: 18, MimeType: "video/mp4; codecs=\"avc1, mp4a\"", AudioChannels: 2},
				{ItagNo: 251, MimeType: "audio/webm; codecs=\"opus\"", AudioChannels: 2, Bitrate: 120000},
			},
			wantItag: 251,
		},
		{
			name: "no audio formats at all",
			formats: youtube.FormatList{
				{ItagNo: 137, MimeType: "video/mp4; codecs=\"avc1\"", AudioChannels: 0},
			},
			wantNil: true,
		},
		{
			name:    "empty list",
			formats: youtube.FormatList{},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pickAudioFormat(tt.formats)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got itag %d", got.ItagNo)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a format, got nil")
			}
			if got.ItagNo != tt.wantItag {
				t.Errorf("itag = %d, want %d", got.ItagNo, tt.wantItag)
			}
		})
	}
}

func TestIsConfigured(t *testing.T) {
	if NewTranscriber("").IsConfigured() {
		t.Error("empty key should not be configured")
	}
	if !NewTranscriber("sk-test").IsConfigured() {
		t.Error("non-empty key should be configured")
	}
}

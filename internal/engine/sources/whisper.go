package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"disinfocrawl/internal/engine"
)

const transcriptionURL = "https://api.openai.com/v1/audio/transcriptions"

// WhisperTranscriber implements engine.Transcriber: audio is split out of
// the mp4 with ffmpeg, then sent to the Whisper API. Media and audio are
// deleted after a successful transcription — the transcript in the store
// is the artifact that matters.
type WhisperTranscriber struct {
	apiKey     string
	model      string
	ffmpegPath string
	httpClient *http.Client
	retry      engine.RetryConfig
	keepMedia  bool
}

// WhisperOption customizes a WhisperTranscriber.
type WhisperOption func(*WhisperTranscriber)

// WithFFmpegPath overrides the ffmpeg binary location.
func WithFFmpegPath(path string) WhisperOption {
	return func(t *WhisperTranscriber) { t.ffmpegPath = path }
}

// WithKeepMedia disables deletion of media files after transcription.
func WithKeepMedia() WhisperOption {
	return func(t *WhisperTranscriber) { t.keepMedia = true }
}

// NewWhisperTranscriber builds a transcriber using the given API key.
func NewWhisperTranscriber(apiKey string, opts ...WhisperOption) *WhisperTranscriber {
	t := &WhisperTranscriber{
		apiKey:     apiKey,
		model:      "whisper-1",
		ffmpegPath: "ffmpeg",
		httpClient: &http.Client{Timeout: 120 * time.Second},
		retry:      engine.DefaultRetryConfig,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe extracts the audio track from localPath and returns the
// plain transcript text. An empty transcript is a valid result — the
// caller decides whether to classify it.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, localPath string) (string, error) {
	engine.IncrTranscribeRequests()

	audioPath := strings.TrimSuffix(localPath, filepath.Ext(localPath)) + ".mp3"
	if err := t.extractAudio(ctx, localPath, audioPath); err != nil {
		engine.IncrTranscribeErrors()
		return "", &engine.FetchError{Op: "transcribe", URL: localPath, Err: err}
	}

	text, err := t.transcribeAudio(ctx, audioPath)
	if err != nil {
		engine.IncrTranscribeErrors()
		os.Remove(audioPath)
		return "", &engine.FetchError{Op: "transcribe", URL: localPath, Err: err}
	}

	if !t.keepMedia {
		os.Remove(localPath)
		os.Remove(audioPath)
	}
	return text, nil
}

// extractAudio shells out to ffmpeg. No Go library in reach decodes mp4
// audio; ffmpeg is the ecosystem answer.
func (t *WhisperTranscriber) extractAudio(ctx context.Context, videoPath, audioPath string) error {
	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-y", "-i", videoPath,
		"-vn", "-acodec", "libmp3lame", "-q:a", "4",
		audioPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

// transcribeAudio posts the audio file to the Whisper endpoint.
func (t *WhisperTranscriber) transcribeAudio(ctx context.Context, audioPath string) (string, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(audio); err != nil {
		return "", err
	}
	if err := mw.WriteField("model", t.model); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	resp, err := engine.RetryHTTP(ctx, t.retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, transcriptionURL, bytes.NewReader(body.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return t.httpClient.Do(req)
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper api status %d: %s", resp.StatusCode, lastLine(string(data)))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode transcription: %w", err)
	}
	return out.Text, nil
}

// lastLine returns the final non-empty line of s, for compact error logs.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

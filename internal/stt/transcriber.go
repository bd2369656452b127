// Package stt turns recorded visit audio into text via the Whisper API.
package stt

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Transcriber converts an audio stream into transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// WhisperTranscriber handles Whisper API transcription requests.
type WhisperTranscriber struct {
	apiKey string
}

// NewWhisperTranscriber creates a new transcription client.
func NewWhisperTranscriber(apiKey string) *WhisperTranscriber {
	return &WhisperTranscriber{
		apiKey: apiKey,
	}
}

// Transcribe transcribes visit audio using the Whisper API.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	if t.apiKey == "" {
		return "", errors.New("API key required: set OPENAI_API_KEY")
	}

	client := openai.NewClient(option.WithAPIKey(t.apiKey))

	params := openai.AudioTranscriptionNewParams{
		File:  audio,
		Model: openai.AudioModelWhisper1,
	}

	resp, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription via Whisper API: %w", err)
	}

	return resp.Text, nil
}

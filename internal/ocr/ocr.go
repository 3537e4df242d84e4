// Package ocr turns images into text lines.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrUnavailable is returned when no OCR backend is configured.
var ErrUnavailable = errors.New("ocr: no backend configured")

const visionInstruction = "Transcribe all text visible in this image, one line of text per output line. " +
	"Reply with the transcription only. If the image contains no text, reply with an empty message."

// Reader extracts text fragments from an image.
type Reader interface {
	ReadText(ctx context.Context, data []byte, mimeType string) ([]string, error)
}

// DecodeCheck verifies that data is a PNG or JPEG image and returns its format.
func DecodeCheck(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}
	return format, nil
}

// VisionReader asks a vision-capable chat model to transcribe the image.
type VisionReader struct {
	client *openai.Client
	model  string
}

// NewVisionReader creates a reader using the given SDK client and model.
func NewVisionReader(client *openai.Client, model string) *VisionReader {
	return &VisionReader{client: client, model: model}
}

func (v *VisionReader) ReadText(ctx context.Context, data []byte, mimeType string) ([]string, error) {
	format, err := DecodeCheck(data)
	if err != nil {
		return nil, err
	}
	if mimeType == "" || mimeType == "image/jpg" {
		mimeType = "image/" + format
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: visionInstruction},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: openai.ImageURLDetailHigh,
					},
				},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("vision ocr with %s: %w", v.model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("vision ocr: no choices in response")
	}
	return splitLines(resp.Choices[0].Message.Content), nil
}

// Unavailable is a Reader that always fails with ErrUnavailable.
type Unavailable struct{}

func (Unavailable) ReadText(context.Context, []byte, string) ([]string, error) {
	return nil, ErrUnavailable
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeCheck(t *testing.T) {
	format, err := DecodeCheck(testPNG(t))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, err = DecodeCheck([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestVisionReader_ReadText(t *testing.T) {
	var sawImage bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []struct {
					Type     string `json:"type"`
					ImageURL *struct {
						URL string `json:"url"`
					} `json:"image_url"`
				} `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		for _, part := range req.Messages[0].Content {
			if part.Type == "image_url" && strings.HasPrefix(part.ImageURL.URL, "data:image/png;base64,") {
				sawImage = true
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"INVOICE 42\n\n  Total: 10 EUR  \n"}}]}`))
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("k")
	cfg.BaseURL = srv.URL + "/v1"
	r := NewVisionReader(openai.NewClientWithConfig(cfg), "gpt-4o-mini")

	lines, err := r.ReadText(context.Background(), testPNG(t), "image/png")
	require.NoError(t, err)
	assert.True(t, sawImage)
	assert.Equal(t, []string{"INVOICE 42", "Total: 10 EUR"}, lines)
}

func TestVisionReader_RejectsUndecodableImage(t *testing.T) {
	r := NewVisionReader(openai.NewClient("k"), "gpt-4o-mini")
	_, err := r.ReadText(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png")
	assert.Error(t, err)
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.ReadText(context.Background(), nil, "image/png")
	assert.ErrorIs(t, err, ErrUnavailable)
}

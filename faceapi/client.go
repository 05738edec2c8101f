// Package faceapi talks to the external face-embedding service: a still
// image goes in, an embedding vector plus quality metrics come out. The
// service is an opaque oracle; nothing here knows how embeddings are
// computed.
package faceapi

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

var (
	ErrUnreachable      = errors.New("face embedding service unreachable")
	ErrUnexpectedStatus = errors.New("face embedding service responded with unexpected status")
)

type AnalyzeResult struct {
	FacesDetected int       `json:"faces_detected"`
	Embedding     []float64 `json:"embedding"`
	Confidence    float64   `json:"confidence"`
	Sharpness     float64   `json:"sharpness"`
	Size          FaceSize  `json:"size"`
}

type FaceSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type Client interface {
	Analyze(ctx context.Context, imageBase64 string) (AnalyzeResult, error)
}

type DefaultClient struct {
	httpClient *resty.Client
}

// NewDefaultClient builds a client for the embedding service at baseUrl.
// The timeout bounds the whole exchange; a timed-out frame is reported to
// the caller and never retried, a stale frame would show the user a stale
// decision.
func NewDefaultClient(baseUrl string, timeout time.Duration) *DefaultClient {
	return &DefaultClient{
		httpClient: resty.New().
			SetBaseURL(baseUrl).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

func (c *DefaultClient) Analyze(ctx context.Context, imageBase64 string) (AnalyzeResult, error) {
	result := AnalyzeResult{}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"image_base64": imageBase64}).
		SetResult(&result).
		Post("/api/embed")
	if err != nil {
		return AnalyzeResult{}, errors.Wrap(ErrUnreachable, err.Error())
	}
	if resp.IsError() {
		return AnalyzeResult{}, errors.Wrapf(ErrUnexpectedStatus, "status code %v, body: %s", resp.StatusCode(), resp.Body())
	}

	return result, nil
}

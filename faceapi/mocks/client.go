package mocks

import (
	"context"

	"github.com/ClearGateLLC/kidpass/faceapi"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (c *MockClient) Analyze(ctx context.Context, imageBase64 string) (faceapi.AnalyzeResult, error) {
	args := c.Called(ctx, imageBase64)
	return args.Get(0).(faceapi.AnalyzeResult), args.Error(1)
}

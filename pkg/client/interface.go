package client

import (
	"context"

	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/types"
)

// VisionClient is a vision-language model backend able to locate body joints.
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	EstimatePose(ctx context.Context, model, prompt, imgB64 string) (*types.PoseResult, error)
}

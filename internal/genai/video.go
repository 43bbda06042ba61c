package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"

	"photobooth/internal/imaging"
)

type veoInstance struct {
	Prompt string    `json:"prompt"`
	Image  *veoImage `json:"image,omitempty"`
}

type veoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type veoParameters struct {
	NumberOfVideos int `json:"numberOfVideos"`
}

type veoPredictRequest struct {
	Instances  []veoInstance `json:"instances"`
	Parameters veoParameters `json:"parameters"`
}

type veoOperationError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type veoVideoSample struct {
	Video struct {
		URI string `json:"uri"`
	} `json:"video"`
}

type veoOperationResponse struct {
	GenerateVideoResponse struct {
		GeneratedSamples []veoVideoSample `json:"generatedSamples"`
	} `json:"generateVideoResponse"`
}

type veoOperation struct {
	Name     string                `json:"name"`
	Done     bool                  `json:"done"`
	Error    *veoOperationError    `json:"error,omitempty"`
	Response *veoOperationResponse `json:"response,omitempty"`
}

// GenerateVideo submits a long-running Veo job for the input still and polls
// it to completion. One job runs at a time; queued callers are admitted in
// submission order. There is no retry loop, a failed job surfaces as a
// terminal error and the caller may re-invoke.
//
// Outcomes mirror GenerateImage: an artifact, (nil, nil) after cancellation,
// or a terminal error (failed job, no downloadable asset).
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (*Artifact, error) {
	if req.Prompt == "" {
		return nil, ErrMissingPrompt
	}
	if req.InputImage == "" {
		return nil, ErrMissingImage
	}

	if err := c.videoSlots.Acquire(ctx, 1); err != nil {
		return nil, nil
	}
	defer c.videoSlots.Release(1)

	mimeType, data, err := imaging.DecodeDataURI(req.InputImage)
	if err != nil {
		return nil, fmt.Errorf("genai: input image: %w", err)
	}

	payload := veoPredictRequest{
		Instances: []veoInstance{{
			Prompt: req.Prompt,
			Image: &veoImage{
				BytesBase64Encoded: base64.StdEncoding.EncodeToString(data),
				MimeType:           mimeType,
			},
		}},
		Parameters: veoParameters{NumberOfVideos: 1},
	}

	var op veoOperation
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel))
	if err := c.invokeGemini(ctx, path, payload, &op); err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("genai: submit video job: %w", err)
	}
	if op.Name == "" {
		return nil, errors.New("genai: video job submission returned no operation name")
	}

	c.logger.Debug().
		Str("model", c.videoModel).
		Str("operation", op.Name).
		Msg("genai: video job submitted, polling")

	for !op.Done {
		// Fail fast on cancellation before every poll.
		if ctx.Err() != nil {
			return nil, nil
		}
		if !sleep(ctx, c.pollInterval) {
			return nil, nil
		}

		var next veoOperation
		if err := c.getGemini(ctx, "/"+op.Name, &next); err != nil {
			if ctx.Err() != nil {
				return nil, nil
			}
			return nil, fmt.Errorf("genai: poll video job: %w", err)
		}
		next.Name = op.Name
		op = next
	}

	if op.Error != nil {
		return nil, fmt.Errorf("genai: video job failed: %s", op.Error.Message)
	}

	uri := ""
	if op.Response != nil && len(op.Response.GenerateVideoResponse.GeneratedSamples) > 0 {
		uri = op.Response.GenerateVideoResponse.GeneratedSamples[0].Video.URI
	}
	if uri == "" {
		return nil, ErrNoVideoAsset
	}

	blob, contentType, err := c.downloadFile(ctx, uri)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("genai: download video: %w", err)
	}

	return &Artifact{MIME: firstNonEmpty(contentType, "video/mp4"), Data: blob}, nil
}

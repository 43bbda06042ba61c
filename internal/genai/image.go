package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	"photobooth/internal/imaging"
)

// Safety filtering is fully relaxed: the booth points a camera at consenting
// people and the categories routinely false-positive on faces.
var safetyOff = []geminiSafetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_CIVIC_INTEGRITY", Threshold: "BLOCK_NONE"},
}

// GenerateImage runs one image generation through the concurrency limiter and
// the retry policy and returns the result as a data URI.
//
// Outcomes: a data URI on success, ("", nil) when ctx was cancelled (clean
// abandonment, not an error), or a terminal error once every attempt has been
// burned. Transient failures, per-attempt timeouts and empty responses never
// escape the retry loop directly.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	if req.Prompt == "" {
		return "", ErrMissingPrompt
	}

	if err := c.imageSlots.Acquire(ctx, 1); err != nil {
		// Acquire only fails when ctx is done, i.e. the caller walked away
		// while queued.
		return "", nil
	}
	defer c.imageSlots.Release(1)

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		uri, err := c.generateImageOnce(ctx, req)
		if err == nil {
			return uri, nil
		}
		if ctx.Err() != nil {
			c.logger.Debug().Str("model", c.imageModel).Msg("genai: image generation abandoned after cancellation")
			return "", nil
		}
		lastErr = err

		if attempt < c.maxAttempts-1 {
			delay := c.baseDelay << attempt
			c.logger.Warn().
				Err(err).
				Str("model", c.imageModel).
				Int("attempt", attempt+1).
				Dur("backoff", delay).
				Msg("genai: image generation attempt failed, backing off")
			if !sleep(ctx, delay) {
				return "", nil
			}
		}
	}

	return "", fmt.Errorf("genai: image generation failed after %d attempts: %w", c.maxAttempts, lastErr)
}

// generateImageOnce performs a single generateContent call bounded by the
// attempt timeout. The timeout marks the attempt failed for retry purposes;
// it does not outlive the attempt.
func (c *Client) generateImageOnce(ctx context.Context, req ImageRequest) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	parts := []geminiPart{{Text: req.Prompt}}
	if req.InputImage != "" {
		inline, err := inlineFromDataURI(req.InputImage)
		if err != nil {
			return "", err
		}
		parts = append(parts, geminiPart{InlineData: inline})
	}

	payload := geminiGenerateContentRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
		SafetySettings:   safetyOff,
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.imageModel))
	if err := c.invokeGemini(attemptCtx, path, payload, &response); err != nil {
		return "", err
	}

	// Absent candidates or absent image payloads are retryable: the model
	// occasionally answers with text only.
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			mimeType := firstNonEmpty(part.InlineData.MimeType, "image/png")
			return fmt.Sprintf("data:%s;base64,%s", mimeType, part.InlineData.Data), nil
		}
	}
	return "", ErrNoImageData
}

func inlineFromDataURI(uri string) (*geminiInlineData, error) {
	mimeType, data, err := imaging.DecodeDataURI(uri)
	if err != nil {
		return nil, fmt.Errorf("genai: input image: %w", err)
	}
	return &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}, nil
}

package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/samber/lo"
)

const (
	finishStop        = "STOP"
	finishSafety      = "SAFETY"
	finishImageSafety = "IMAGE_SAFETY"
	defaultMimeType   = "image/png"
)

// Validate classifies an upstream envelope. It never panics and always
// returns a terminal Outcome.
func Validate(ctx context.Context, env *Envelope) Outcome {
	log := log.FromContextOrDiscard(ctx).WithGroup("validator")

	if env == nil || len(env.Candidates) == 0 {
		if env != nil && env.PromptFeedback != nil && env.PromptFeedback.BlockReason != "" {
			log.Warn("prompt blocked", "reason", env.PromptFeedback.BlockReason)
		}
		return Fail(KindInvalidResponse, "response has no candidates")
	}

	candidate := env.Candidates[0]
	if reason := strings.ToUpper(candidate.FinishReason); reason != "" && reason != finishStop {
		if reason == finishSafety || reason == finishImageSafety {
			return Fail(KindSafetyBlocked, "generation blocked by safety settings (%s)", candidate.FinishReason)
		}
		log.Warn("generation stopped early", "finishReason", candidate.FinishReason)
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return Fail(KindInvalidResponse, "candidate has no content")
	}
	if raw := bytes.TrimSpace(candidate.Content.Parts); len(raw) == 0 || raw[0] != '[' {
		return Fail(KindInvalidResponse, "content parts is not a list")
	}

	var parts []Part
	if err := json.Unmarshal(candidate.Content.Parts, &parts); err != nil {
		return Fail(KindInvalidResponse, "decoding content parts: %v", err)
	}

	part, ok := lo.Find(parts, func(p Part) bool { return p.InlineData != nil && p.InlineData.Data != "" })
	if !ok {
		text := strings.TrimSpace(strings.Join(lo.FilterMap(parts, func(p Part, _ int) (string, bool) {
			return p.Text, p.Text != ""
		}), " "))
		return Fail(KindNoImagePart, "response contained no image%s", lo.Ternary(text != "", ": "+text, ""))
	}

	data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
	if err != nil {
		return Fail(KindInvalidResponse, "decoding inline image: %v", err)
	}
	mimeType := lo.Ternary(part.InlineData.MimeType != "", part.InlineData.MimeType, defaultMimeType)
	log.Debug("image received", "mimeType", mimeType, "bytes", len(data))
	return Success(data, mimeType)
}

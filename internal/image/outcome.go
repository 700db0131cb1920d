package image

import "fmt"

type Kind string

const (
	KindInvalidResponse Kind = "invalid-response"
	KindNoImagePart     Kind = "no-image-part"
	KindSafetyBlocked   Kind = "safety-blocked"
	KindRateLimited     Kind = "rate-limited"
	KindTimeout         Kind = "timeout"
	KindUpstreamError   Kind = "upstream-error"
)

// Describe returns a message telling a person what to do about the failure.
func (k Kind) Describe() string {
	switch k {
	case KindInvalidResponse:
		return "The image service returned an unreadable response. Try again."
	case KindNoImagePart:
		return "The image service answered without an image. Try again or adjust the description."
	case KindSafetyBlocked:
		return "The request was blocked by content safety filters. Change the description or reference images."
	case KindRateLimited:
		return "The image service is rate limiting requests. Wait a moment and try again."
	case KindTimeout:
		return "Generation took too long and was abandoned. Try again."
	}
	return "Image generation failed. Try again later."
}

// Failure is a classified, terminal generation failure.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func Fail(kind Kind, format string, args ...any) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// Outcome is either an image or a Failure, never both.
type Outcome struct {
	Data     []byte
	MimeType string
	Failure  *Failure
}

func Success(data []byte, mimeType string) Outcome {
	return Outcome{Data: data, MimeType: mimeType}
}

func (o Outcome) OK() bool {
	return o.Failure == nil
}

// Err returns the Failure as an error, or nil on success.
func (o Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return o.Failure
}

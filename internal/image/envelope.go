package image

import "encoding/json"

// Envelope is the body of a generateContent response. Parts is kept raw so
// the validator can tell a missing list from a malformed one.
type Envelope struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
	ResponseID     string          `json:"responseId,omitempty"`
}

type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

type Content struct {
	Role  string          `json:"role,omitempty"`
	Parts json.RawMessage `json:"parts,omitempty"`
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64 encoded bytes.
type InlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data"`
}

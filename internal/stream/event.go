package stream

import (
	"github.com/dmorgan81/neurophoto/internal/image"
	"github.com/samber/lo"
)

type EventType string

const (
	EventStart EventType = "start"
	EventImage EventType = "image"
	EventError EventType = "error"
	EventDone  EventType = "done"
)

// Event is one message on the stream. Index is the submission index of the
// directive an image or error belongs to; completion order is arbitrary.
type Event struct {
	Type  EventType  `json:"type"`
	Count int        `json:"count,omitempty"`
	Index *int       `json:"index,omitempty"`
	Image *Image     `json:"image,omitempty"`
	Error string     `json:"error,omitempty"`
	Kind  image.Kind `json:"kind,omitempty"`
}

// Image is a generated picture. URL and ID are set once it has been
// published; Data is only sent when it could not be.
type Image struct {
	ID       string `json:"id,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data,omitempty"`
	Pose     string `json:"pose,omitempty"`
}

func Start(count int) Event {
	return Event{Type: EventStart, Count: count}
}

func ImageEvent(index int, img Image) Event {
	return Event{Type: EventImage, Index: lo.ToPtr(index), Image: &img}
}

func ErrorEvent(index int, f *image.Failure) Event {
	return Event{Type: EventError, Index: lo.ToPtr(index), Error: f.Message, Kind: f.Kind}
}

func Done() Event {
	return Event{Type: EventDone}
}

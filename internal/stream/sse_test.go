package stream

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/dmorgan81/neurophoto/internal/image"
)

func TestSSEWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	emit := NewSSEWriter(rec).Emitter(context.Background())

	emit(Start(2))
	emit(ImageEvent(1, Image{URL: "https://cdn/x.png", MimeType: "image/png"}))
	emit(ErrorEvent(0, &image.Failure{Kind: image.KindSafetyBlocked, Message: "blocked"}))
	emit(Done())

	want := `data: {"type":"start","count":2}` + "\n\n" +
		`data: {"type":"image","index":1,"image":{"url":"https://cdn/x.png","mimeType":"image/png"}}` + "\n\n" +
		`data: {"type":"error","index":0,"error":"blocked","kind":"safety-blocked"}` + "\n\n" +
		`data: {"type":"done"}` + "\n\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body =\n%s\nwant\n%s", got, want)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !rec.Flushed {
		t.Error("events were not flushed")
	}
}

func TestIndexZeroIsSerialized(t *testing.T) {
	e := ImageEvent(0, Image{})
	if e.Index == nil || *e.Index != 0 {
		t.Errorf("index = %v", e.Index)
	}
}

package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmorgan81/neurophoto/internal/image"
	"github.com/dmorgan81/neurophoto/internal/prompt"
	"github.com/dmorgan81/neurophoto/internal/queue"
)

// fakeGenerator answers by directive text: "fail:<msg>" returns an error,
// "slow" sleeps first, anything else returns an image.
type fakeGenerator struct{}

func (fakeGenerator) Generate(ctx context.Context, req image.Request) (*image.Envelope, error) {
	switch {
	case strings.HasPrefix(req.Text, "fail:"):
		return nil, errors.New(strings.TrimPrefix(req.Text, "fail:"))
	case req.Text == "slow":
		select {
		case <-time.After(30 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &image.Envelope{Candidates: []image.Candidate{{
		Content: &image.Content{Parts: []byte(`[{"inlineData":{"mimeType":"image/png","data":"aGVsbG8="}}]`)},
	}}}, nil
}

func directives(texts ...string) []prompt.Directive {
	ds := make([]prompt.Directive, len(texts))
	for i, t := range texts {
		ds[i] = prompt.Directive{Text: t, Pose: fmt.Sprintf("pose %d", i)}
	}
	return ds
}

func collect(c *Controller, ds []prompt.Directive) []Event {
	var events []Event
	c.Run(context.Background(), ds, func(e Event) { events = append(events, e) })
	return events
}

func TestRunEmitsOneTerminalEventPerDirective(t *testing.T) {
	c := New(queue.New(3, time.Second), fakeGenerator{})
	events := collect(c, directives("slow", "a", "slow", "b", "slow"))

	if events[0].Type != EventStart || events[0].Count != 5 {
		t.Fatalf("first event = %+v", events[0])
	}
	if events[len(events)-1].Type != EventDone {
		t.Fatalf("last event = %+v", events[len(events)-1])
	}
	seen := map[int]bool{}
	for _, e := range events[1 : len(events)-1] {
		if e.Type != EventImage && e.Type != EventError {
			t.Errorf("unexpected %s in the middle", e.Type)
		}
		if seen[*e.Index] {
			t.Errorf("index %d emitted twice", *e.Index)
		}
		seen[*e.Index] = true
	}
	if len(seen) != 5 {
		t.Errorf("terminal events = %d, want 5", len(seen))
	}
}

func TestRunIsolatesRateLimit(t *testing.T) {
	c := New(queue.New(3, time.Second), fakeGenerator{})
	events := collect(c, directives("a", "fail:429 rate limit", "b", "c"))

	var images int
	for _, e := range events {
		switch e.Type {
		case EventImage:
			images++
			if string(e.Image.Data) != "hello" {
				t.Errorf("image %d data = %q", *e.Index, e.Image.Data)
			}
		case EventError:
			if *e.Index != 1 || e.Kind != image.KindRateLimited {
				t.Errorf("error event = %+v", e)
			}
		}
	}
	if images != 3 {
		t.Errorf("images = %d, want 3", images)
	}
}

func TestRunCompletionOrder(t *testing.T) {
	c := New(queue.New(3, time.Second), fakeGenerator{})
	events := collect(c, directives("slow", "fast"))
	if *events[1].Index != 1 {
		t.Errorf("first result index = %d, want the fast task", *events[1].Index)
	}
}

func TestRunEmpty(t *testing.T) {
	events := collect(New(queue.New(1, time.Second), fakeGenerator{}), nil)
	if len(events) != 2 || events[0].Count != 0 || events[1].Type != EventDone {
		t.Errorf("events = %+v", events)
	}
}

type recordingPublisher struct {
	mu   sync.Mutex
	fail bool
	got  []int
}

func (p *recordingPublisher) Publish(_ context.Context, idx int, _ prompt.Directive, _ image.Outcome) (Published, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, idx)
	if p.fail {
		return Published{}, errors.New("bucket gone")
	}
	return Published{ID: fmt.Sprint(idx), URL: fmt.Sprintf("https://cdn/%d.png", idx)}, nil
}

func TestRunPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	c := New(queue.New(2, time.Second), fakeGenerator{}).WithPublisher(pub)
	for _, e := range collect(c, directives("a", "fail:boom", "b")) {
		if e.Type == EventImage && (e.Image.URL == "" || e.Image.Data != nil) {
			t.Errorf("published image event = %+v", e.Image)
		}
	}
	if len(pub.got) != 2 {
		t.Errorf("published %v, want only the two successes", pub.got)
	}
}

func TestRunPublishFailureKeepsImage(t *testing.T) {
	c := New(queue.New(2, time.Second), fakeGenerator{}).WithPublisher(&recordingPublisher{fail: true})
	events := collect(c, directives("a"))
	if e := events[1]; e.Type != EventImage || string(e.Image.Data) != "hello" {
		t.Errorf("event = %+v, want inline image", e)
	}
}

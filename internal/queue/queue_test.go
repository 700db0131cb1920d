package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmorgan81/neurophoto/internal/image"
)

func ok(context.Context) (image.Outcome, error) {
	return image.Success([]byte("img"), "image/png"), nil
}

func TestSubmitSuccess(t *testing.T) {
	s := New(1, time.Second)
	out, err := s.Submit(context.Background(), ok)
	if err != nil || !out.OK() {
		t.Fatalf("Submit = %+v, %v", out, err)
	}
	if st := s.Stats(); st.Completed != 1 || st.Running != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestCeilingNeverExceeded(t *testing.T) {
	const ceiling, tasks = 3, 20
	s := New(ceiling, time.Second)

	var running, peak atomic.Int64
	task := func(context.Context) (image.Outcome, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return ok(context.Background())
	}

	var wg sync.WaitGroup
	for i := 0; i < tasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Submit(context.Background(), task); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > ceiling {
		t.Errorf("peak concurrency = %d, ceiling %d", p, ceiling)
	}
	if st := s.Stats(); st.Completed != tasks {
		t.Errorf("completed = %d", st.Completed)
	}
}

func TestFourthTaskWaitsForSlot(t *testing.T) {
	s := New(3, time.Second)
	release := make(chan struct{})
	started := make(chan int, 4)

	task := func(i int) Task {
		return func(context.Context) (image.Outcome, error) {
			started <- i
			<-release
			return ok(context.Background())
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Submit(context.Background(), task(i))
		}(i)
	}
	for i := 0; i < 3; i++ {
		<-started
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Submit(context.Background(), task(3))
	}()

	select {
	case i := <-started:
		t.Fatalf("task %d started above the ceiling", i)
	case <-time.After(50 * time.Millisecond):
	}
	if st := s.Stats(); st.Running != 3 || st.Waiting != 1 {
		t.Errorf("stats = %+v, want 3 running 1 waiting", st)
	}

	release <- struct{}{}
	select {
	case i := <-started:
		if i != 3 {
			t.Errorf("started %d, want 3", i)
		}
	case <-time.After(time.Second):
		t.Fatal("fourth task never started")
	}
	close(release)
	wg.Wait()

	if st := s.Stats(); st.Completed != 4 {
		t.Errorf("completed = %d, want 4", st.Completed)
	}
}

func TestAdmissionIsFIFO(t *testing.T) {
	const waiters = 5
	s := New(1, time.Second)
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Submit(context.Background(), func(context.Context) (image.Outcome, error) {
			<-release
			return ok(context.Background())
		})
	}()
	waitFor(t, func() bool { return s.Stats().Running == 1 })

	var mu sync.Mutex
	var order []int
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Submit(context.Background(), func(context.Context) (image.Outcome, error) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return ok(context.Background())
			})
		}()
		waitFor(t, func() bool { return s.Stats().Waiting == int64(i+1) })
		// Waiting is counted just before the semaphore queues the caller.
		time.Sleep(5 * time.Millisecond)
	}

	close(release)
	wg.Wait()

	for i, got := range order {
		if got != i {
			t.Fatalf("start order = %v, want submission order", order)
		}
	}
	if len(order) != waiters {
		t.Errorf("started %d of %d", len(order), waiters)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTimeout(t *testing.T) {
	s := New(1, 20*time.Millisecond)
	block := make(chan struct{})
	defer close(block)

	out, err := s.Submit(context.Background(), func(context.Context) (image.Outcome, error) {
		<-block
		return ok(context.Background())
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Failure == nil || out.Failure.Kind != image.KindTimeout {
		t.Fatalf("outcome = %+v, want timeout", out)
	}

	// the abandoned task must not hold the slot
	out, err = s.Submit(context.Background(), ok)
	if err != nil || !out.OK() {
		t.Errorf("follow-up Submit = %+v, %v", out, err)
	}
	if st := s.Stats(); st.TimedOut != 1 || st.Completed != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestTimeoutCancelsTaskContext(t *testing.T) {
	s := New(1, 10*time.Millisecond)
	cancelled := make(chan struct{})
	out, _ := s.Submit(context.Background(), func(ctx context.Context) (image.Outcome, error) {
		<-ctx.Done()
		close(cancelled)
		return image.Outcome{}, ctx.Err()
	})
	if out.Failure == nil || out.Failure.Kind != image.KindTimeout {
		t.Errorf("outcome = %+v", out)
	}
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Error("task context was not cancelled")
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		err  error
		want image.Kind
	}{
		{errors.New("429 rate limit"), image.KindRateLimited},
		{fmt.Errorf("call: %w", &image.StatusError{Code: 429, Body: "slow down"}), image.KindRateLimited},
		{&image.StatusError{Code: 500, Body: "boom"}, image.KindUpstreamError},
		{errors.New("connection refused"), image.KindUpstreamError},
	}
	s := New(2, time.Second)
	for _, tt := range tests {
		out, err := s.Submit(context.Background(), func(context.Context) (image.Outcome, error) {
			return image.Outcome{}, tt.err
		})
		if err != nil {
			t.Fatal(err)
		}
		if out.Failure == nil || out.Failure.Kind != tt.want {
			t.Errorf("%v classified as %+v, want %s", tt.err, out.Failure, tt.want)
		}
	}
	if st := s.Stats(); st.Failed != int64(len(tests)) {
		t.Errorf("failed = %d", st.Failed)
	}
}

func TestValidatorFailurePassesThrough(t *testing.T) {
	s := New(1, time.Second)
	out, _ := s.Submit(context.Background(), func(context.Context) (image.Outcome, error) {
		return image.Fail(image.KindSafetyBlocked, "blocked"), nil
	})
	if out.Failure == nil || out.Failure.Kind != image.KindSafetyBlocked {
		t.Errorf("outcome = %+v", out)
	}
}

func TestCallerCancelWhileWaiting(t *testing.T) {
	s := New(1, time.Second)
	release := make(chan struct{})
	started := make(chan struct{})
	go s.Submit(context.Background(), func(context.Context) (image.Outcome, error) {
		close(started)
		<-release
		return ok(context.Background())
	})
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Submit(ctx, ok); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	close(release)
}

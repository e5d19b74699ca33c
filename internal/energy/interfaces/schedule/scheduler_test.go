package schedule

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"eco2mix-insights/internal/energy/application"
	"eco2mix-insights/internal/energy/domain/snapshot"
)

type stubReloader struct {
	calls  int
	err    error
	ctxErr error
}

func (r *stubReloader) Reload(ctx context.Context) (*application.LoadedDataset, error) {
	r.calls++
	r.ctxErr = ctx.Err()
	if r.err != nil {
		return nil, r.err
	}
	return &application.LoadedDataset{Version: uint64(r.calls)}, nil
}

type stubPublisher struct {
	enabled bool
	calls   int
	err     error
}

func (p *stubPublisher) Enabled() bool { return p.enabled }

func (p *stubPublisher) Publish(context.Context) (snapshot.Run, error) {
	p.calls++
	return snapshot.Run{ID: "run-1"}, p.err
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("", &stubReloader{}); err == nil {
		t.Fatalf("expected error for empty spec")
	}
	if _, err := New("@daily", nil); err == nil {
		t.Fatalf("expected error for nil reloader")
	}
	if _, err := New("not a schedule", &stubReloader{}); err == nil || !strings.Contains(err.Error(), "invalid spec") {
		t.Fatalf("expected invalid spec error, got %v", err)
	}
}

func TestRunOnce_ReloadsAndPublishes(t *testing.T) {
	reloader := &stubReloader{}
	publisher := &stubPublisher{enabled: true}
	s, err := New("@every 6h", reloader, WithPublisher(publisher))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if reloader.calls != 1 || publisher.calls != 1 {
		t.Fatalf("expected one reload and one publish, got %d and %d", reloader.calls, publisher.calls)
	}
}

func TestRunOnce_SkipsDisabledPublisher(t *testing.T) {
	publisher := &stubPublisher{}
	s, err := New("@hourly", &stubReloader{}, WithPublisher(publisher))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if publisher.calls != 0 {
		t.Fatalf("disabled publisher was called %d times", publisher.calls)
	}
}

func TestRunOnce_ReloadFailureSkipsPublish(t *testing.T) {
	boom := errors.New("boom")
	publisher := &stubPublisher{enabled: true}
	s, err := New("@hourly", &stubReloader{err: boom}, WithPublisher(publisher))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := s.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if publisher.calls != 0 {
		t.Fatalf("publish ran after a failed reload")
	}
}

func TestRunOnce_PublishFailure(t *testing.T) {
	boom := errors.New("store down")
	s, err := New("@hourly", &stubReloader{}, WithPublisher(&stubPublisher{enabled: true, err: boom}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := s.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestStartStop(t *testing.T) {
	s, err := New("0 3 * * *", &stubReloader{}, WithTimeout(time.Minute))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	s.Start(context.Background())
	defer s.Stop()
	deadline := time.Now().Add(time.Second)
	for s.Next().IsZero() {
		if time.Now().After(deadline) {
			t.Fatalf("schedule never armed")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if next := s.Next(); next.Hour() != 3 || next.Minute() != 0 {
		t.Fatalf("expected next run at 03:00, got %v", next)
	}
}

func TestScheduledRunUsesStartContext(t *testing.T) {
	reloader := &stubReloader{}
	s, err := New("@hourly", reloader)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	s.run()
	if reloader.ctxErr != nil {
		t.Fatalf("run before Start should use a live context, got %v", reloader.ctxErr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()
	s.Stop()

	s.run()
	if !errors.Is(reloader.ctxErr, context.Canceled) {
		t.Fatalf("expected the run to see a cancelled context, got %v", reloader.ctxErr)
	}
}

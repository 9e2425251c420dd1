package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/policygate/internal/worker"
)

// fakeProvider replays scripted responses
type fakeProvider struct {
	responses []string
	errs      []error
	calls     int32
	lastReq   CompletionRequest
}

func (f *fakeProvider) Name() string                       { return "fake" }
func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	i := int(atomic.AddInt32(&f.calls, 1)) - 1
	f.lastReq = req
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	content := ""
	if i < len(f.responses) {
		content = f.responses[i]
	} else if len(f.responses) > 0 {
		content = f.responses[len(f.responses)-1]
	}
	return &CompletionResponse{Content: content, Model: "fake-model"}, nil
}

func newTestLimited(p Provider, retries int) *LimitedProvider {
	l := NewLimitedProvider(p, worker.NewLimiter(0, 1), "http://fake.test", retries)
	l.baseDelay = time.Millisecond
	return l
}

func TestLimitedProvider_RetriesTransient(t *testing.T) {
	fake := &fakeProvider{
		errs:      []error{NewTransientError(errors.New("503")), NewTransientError(errors.New("429"))},
		responses: []string{"", "", "ok"},
	}

	resp, err := newTestLimited(fake, 3).Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("expected ok, got %q", resp.Content)
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 calls, got %d", fake.calls)
	}
}

func TestLimitedProvider_FatalNotRetried(t *testing.T) {
	fake := &fakeProvider{errs: []error{errors.New("401 unauthorized")}}

	_, err := newTestLimited(fake, 3).Complete(context.Background(), CompletionRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if fake.calls != 1 {
		t.Errorf("expected 1 call, got %d", fake.calls)
	}
}

func TestLimitedProvider_GivesUp(t *testing.T) {
	transient := NewTransientError(errors.New("overloaded"))
	fake := &fakeProvider{errs: []error{transient, transient, transient}}

	_, err := newTestLimited(fake, 2).Complete(context.Background(), CompletionRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransient(err) {
		t.Errorf("expected wrapped transient error, got %v", err)
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 calls, got %d", fake.calls)
	}
}

func TestLimitedProvider_ContextCancelled(t *testing.T) {
	fake := &fakeProvider{errs: []error{NewTransientError(errors.New("503"))}}
	l := newTestLimited(fake, 5)
	l.baseDelay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := l.Complete(ctx, CompletionRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestLimitedProvider_KeepsName(t *testing.T) {
	if name := newTestLimited(&fakeProvider{}, 0).Name(); name != "fake" {
		t.Errorf("expected wrapped name fake, got %s", name)
	}
}

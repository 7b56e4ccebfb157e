package pi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type fakeApprover struct {
	mu          sync.Mutex
	approved    []string
	completed   []string
	approveErr  error
	completeErr error
}

func (f *fakeApprover) Approve(_ context.Context, paymentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approved = append(f.approved, paymentID)
	return f.approveErr
}

func (f *fakeApprover) Complete(_ context.Context, paymentID, txid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, paymentID+"/"+txid)
	return f.completeErr
}

type stateLog struct {
	mu     sync.Mutex
	states []FlowState
}

func (s *stateLog) record(state FlowState, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
}

func (s *stateLog) snapshot() []FlowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FlowState(nil), s.states...)
}

// capture returns a starter that hands the callbacks to the test.
func capture(cb *Callbacks) Starter {
	return func(_ PaymentData, callbacks Callbacks) error {
		*cb = callbacks
		return nil
	}
}

func TestHappyPathReachesDone(t *testing.T) {
	approver := &fakeApprover{}
	log := &stateLog{}
	f := NewFlow(approver, log.record)

	var cb Callbacks
	if err := f.Start(capture(&cb), PaymentData{Amount: 1, Memo: "premium"}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cb.OnReadyForServerApproval("p1")
	cb.OnReadyForServerCompletion("p1", "tx9")

	if got := f.State(); got != FlowDone {
		t.Fatalf("state = %s, want done", got)
	}
	want := []FlowState{FlowApproving, FlowCompleting, FlowDone}
	got := log.snapshot()
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", got, want)
		}
	}
	if len(approver.approved) != 1 || approver.approved[0] != "p1" {
		t.Errorf("approved = %v", approver.approved)
	}
	if len(approver.completed) != 1 || approver.completed[0] != "p1/tx9" {
		t.Errorf("completed = %v", approver.completed)
	}
	if f.PaymentID() != "p1" {
		t.Errorf("PaymentID = %q", f.PaymentID())
	}
}

func TestCancelledFlowIgnoresLateCallbacks(t *testing.T) {
	approver := &fakeApprover{}
	f := NewFlow(approver, nil)

	var cb Callbacks
	f.Start(capture(&cb), PaymentData{})

	cb.OnCancel()
	if got := f.State(); got != FlowCancelled {
		t.Fatalf("state = %s, want cancelled", got)
	}

	// The wallet dialog can still deliver stragglers.
	cb.OnReadyForServerApproval("p1")
	cb.OnError(errors.New("late failure"))

	if got := f.State(); got != FlowCancelled {
		t.Errorf("terminal state moved to %s", got)
	}
	if len(approver.approved) != 0 {
		t.Errorf("approval ran after cancellation: %v", approver.approved)
	}
}

func TestApprovalFailureEndsInError(t *testing.T) {
	approver := &fakeApprover{approveErr: errors.New("server said no")}
	f := NewFlow(approver, nil)

	var cb Callbacks
	f.Start(capture(&cb), PaymentData{})
	cb.OnReadyForServerApproval("p1")

	if got := f.State(); got != FlowError {
		t.Fatalf("state = %s, want error", got)
	}
	if f.Err() == nil || !strings.Contains(f.Err().Error(), "server said no") {
		t.Errorf("Err() = %v", f.Err())
	}
}

func TestAbandonedFlowReachesTerminalState(t *testing.T) {
	f := NewFlow(&fakeApprover{}, nil)
	f.deadline = 30 * time.Millisecond

	// The bridge never fires a callback.
	silent := func(PaymentData, Callbacks) error { return nil }
	if err := f.Start(silent, PaymentData{}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.State().Terminal() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := f.State(); got != FlowError {
		t.Fatalf("abandoned flow state = %s, want error", got)
	}
	if f.Err() == nil || !strings.Contains(f.Err().Error(), "abandoned") {
		t.Errorf("Err() = %v", f.Err())
	}
}

func TestStartFailureIsTerminal(t *testing.T) {
	f := NewFlow(&fakeApprover{}, nil)

	broken := func(PaymentData, Callbacks) error { return errors.New("sdk unavailable") }
	if err := f.Start(broken, PaymentData{}); err == nil {
		t.Fatal("Start should surface the bridge failure")
	}
	if got := f.State(); got != FlowError {
		t.Errorf("state = %s, want error", got)
	}
}

func TestFlowIsSingleUse(t *testing.T) {
	f := NewFlow(&fakeApprover{}, nil)

	var cb Callbacks
	f.Start(capture(&cb), PaymentData{})
	cb.OnCancel()

	if err := f.Start(capture(&cb), PaymentData{}); err == nil {
		t.Error("a finished flow must refuse to restart")
	}
}

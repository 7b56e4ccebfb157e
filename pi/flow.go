package pi

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// FlowState names the payment flow's position. done, error and cancelled
// are terminal; once reached, the flow never moves again.
type FlowState string

const (
	FlowIdle       FlowState = "idle"
	FlowApproving  FlowState = "approving"
	FlowCompleting FlowState = "completing"
	FlowDone       FlowState = "done"
	FlowError      FlowState = "error"
	FlowCancelled  FlowState = "cancelled"
)

// Terminal reports whether the flow has finished in this state.
func (s FlowState) Terminal() bool {
	return s == FlowDone || s == FlowError || s == FlowCancelled
}

// abandonDeadline bounds a flow whose callbacks never fire (user walked
// away from the wallet dialog).
const abandonDeadline = 5 * time.Minute

// Approver is the server side of the two-phase payment handshake.
type Approver interface {
	Approve(ctx context.Context, paymentID string) error
	Complete(ctx context.Context, paymentID, txid string) error
}

// Flow is one payment attempt as an explicit state machine. Every path
// ends in a terminal state: the bridge callbacks drive the happy and
// failure paths and a deadline covers the abandoned flow. Transitions out
// of a terminal state are ignored, so late callbacks cannot resurrect a
// finished payment.
type Flow struct {
	approver Approver
	onChange func(FlowState, error)
	deadline time.Duration

	mu        sync.Mutex
	state     FlowState
	paymentID string
	err       error
	timer     *time.Timer
}

// NewFlow creates an idle flow. onChange observes every state transition;
// it runs on whichever goroutine triggered the transition.
func NewFlow(approver Approver, onChange func(FlowState, error)) *Flow {
	return &Flow{
		approver: approver,
		onChange: onChange,
		deadline: abandonDeadline,
		state:    FlowIdle,
	}
}

// State returns the current flow state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the failure cause once the flow is in the error state.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// PaymentID returns the payment identity once the bridge assigned one.
func (f *Flow) PaymentID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paymentID
}

// Start hands the payment to the platform bridge and arms the abandonment
// deadline. Only an idle flow can start; a Flow is single-use.
func (f *Flow) Start(start Starter, data PaymentData) error {
	f.mu.Lock()
	if f.state != FlowIdle {
		f.mu.Unlock()
		return errors.Errorf("payment flow already %s", f.state)
	}
	f.timer = time.AfterFunc(f.deadline, func() {
		f.fail(errors.New("payment abandoned"))
	})
	f.mu.Unlock()

	err := start(data, Callbacks{
		OnReadyForServerApproval:   f.approve,
		OnReadyForServerCompletion: f.complete,
		OnCancel:                   f.cancel,
		OnError:                    f.fail,
	})
	if err != nil {
		f.fail(errors.Wrap(err, "start payment"))
		return err
	}
	return nil
}

// approve runs the server-approval phase.
func (f *Flow) approve(paymentID string) {
	if !f.transition(FlowApproving, func() {
		f.paymentID = paymentID
	}) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := f.approver.Approve(ctx, paymentID); err != nil {
		f.fail(err)
	}
}

// complete runs the server-completion phase and finishes the flow.
func (f *Flow) complete(paymentID, txid string) {
	if !f.transition(FlowCompleting, nil) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := f.approver.Complete(ctx, paymentID, txid); err != nil {
		f.fail(err)
		return
	}
	f.transition(FlowDone, nil)
}

func (f *Flow) cancel() {
	f.transition(FlowCancelled, nil)
}

func (f *Flow) fail(err error) {
	f.transition(FlowError, func() {
		f.err = err
	})
	if err != nil {
		log.WithError(err).Warn("payment flow failed")
	}
}

// transition moves to next unless the flow already finished. apply runs
// under the lock before observers are notified.
func (f *Flow) transition(next FlowState, apply func()) bool {
	f.mu.Lock()
	if f.state.Terminal() {
		f.mu.Unlock()
		return false
	}
	f.state = next
	if apply != nil {
		apply()
	}
	if next.Terminal() && f.timer != nil {
		f.timer.Stop()
	}
	onChange := f.onChange
	err := f.err
	f.mu.Unlock()

	if onChange != nil {
		onChange(next, err)
	}
	return true
}

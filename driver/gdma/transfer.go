package gdma

import (
	"context"
	"fmt"
	"runtime"
)

// State is the software view of a direction's transfer cycle.
type State uint8

const (
	Idle State = iota
	Configured
	Running
	Complete
)

var stateNames = [...]string{
	Idle:       "idle",
	Configured: "configured",
	Running:    "running",
	Complete:   "complete",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// transfer sequences one direction of a channel:
//
//	Idle -> Configured -> Running -> Complete -> Idle
//
// A descriptor error ends the transfer like a completion does. Poll
// reports it in Status and the caller decides whether to Acknowledge
// and retry or Halt.
type transfer struct {
	port    Port
	ch      int
	dir     Dir
	allowed Peripherals
	chain   Chain
	state   State
}

// init brings the direction up and loads its chain. The direction
// stays Idle until Configure arms it.
func (t *transfer) init(burst bool, prio Priority) {
	t.port.Init()
	t.port.SetBurstMode(burst)
	t.port.SetPriority(prio)
	t.port.Reset()
	t.port.SetDescriptorBase(t.chain.Base)
}

func (t *transfer) String() string {
	return fmt.Sprintf("ch%d %v", t.ch, t.dir)
}

func (t *transfer) errorf(err error) error {
	return fmt.Errorf("%v: %w", t, err)
}

// State returns the current state of the transfer cycle.
func (t *transfer) State() State {
	return t.state
}

// Chain returns the descriptor chain last passed to Configure.
func (t *transfer) Chain() Chain {
	return t.chain
}

// Configure resets the direction and points it at chain. The chain
// must stay valid and unmodified until the following Acknowledge.
// A running or completed but unacknowledged transfer is not
// reconfigured. A configured direction that has not been started can
// be pointed at another chain.
func (t *transfer) Configure(chain Chain) error {
	if chain.Empty() {
		return t.errorf(ErrEmptyChain)
	}
	switch t.state {
	case Running:
		return t.errorf(ErrBusy)
	case Complete:
		return t.errorf(ErrNotAcknowledged)
	}
	t.port.Reset()
	t.port.SetDescriptorBase(chain.Base)
	t.chain = chain
	t.state = Configured
	return nil
}

// Start binds the direction to peripheral p and starts the transfer.
// Start fails unless the direction is freshly configured; in
// particular a running transfer is never started twice.
func (t *transfer) Start(p PeripheralID) error {
	if t.state != Configured {
		return t.errorf(ErrNotConfigured)
	}
	if !t.allowed.Has(p) {
		return t.errorf(fmt.Errorf("%w: %v", ErrUnsuitablePeripheral, p))
	}
	t.port.SetPeripheral(p)
	t.port.Start()
	t.state = Running
	return nil
}

// Poll reads the hardware status. A running transfer whose chain has
// been transferred, or whose engine hit a descriptor error, becomes
// Complete.
func (t *transfer) Poll() Status {
	s := Status{
		Done:            t.port.IsDone(),
		DescriptorError: t.port.HasDescriptorError(),
	}
	if (s.Done || s.DescriptorError) && t.state == Running {
		t.state = Complete
	}
	return s
}

// Acknowledge clears the status flags of a finished transfer so that
// they are not mistaken for the completion of the next one.
func (t *transfer) Acknowledge() error {
	if t.state == Running {
		return t.errorf(ErrBusy)
	}
	t.port.ClearInterrupts()
	t.state = Idle
	return nil
}

// Halt abandons any transfer in progress and returns the direction
// to Idle.
func (t *transfer) Halt() {
	t.port.Reset()
	t.port.ClearInterrupts()
	t.state = Idle
}

// Wait polls until the running transfer completes or ctx is done. It
// returns ErrDescriptor if the engine reports a descriptor error.
func (t *transfer) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch t.state {
		case Running, Complete:
		default:
			return t.errorf(ErrNotRunning)
		}
		s := t.Poll()
		if s.DescriptorError {
			return t.errorf(ErrDescriptor)
		}
		if s.Done {
			return nil
		}
		runtime.Gosched()
	}
}

// Tx is the memory to peripheral half of a channel.
type Tx struct {
	transfer
}

// Rx is the peripheral to memory half of a channel.
type Rx struct {
	transfer
}

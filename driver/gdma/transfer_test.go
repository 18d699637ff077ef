package gdma

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newChannel(t *testing.T, v *Variant, index int) (*Simulator, *Channel) {
	t.Helper()
	sim, e := newEngine(t, v)
	ch, err := e.Creators()[index].Configure(false, Chain{0x3fc8_0000, 4}, Chain{0x3fc8_1000, 4}, 2)
	if err != nil {
		t.Fatal(err)
	}
	return sim, ch
}

func TestTransferCycle(t *testing.T) {
	sim, ch := newChannel(t, ESP32C3, 0)
	tx := ch.Tx
	if tx.State() != Idle {
		t.Fatalf("new channel in state %v", tx.State())
	}
	for i := range 2 {
		if err := tx.Configure(Chain{0x3fc8_0000, 4}); err != nil {
			t.Fatal(err)
		}
		if tx.State() != Configured {
			t.Fatalf("cycle %d: state %v after Configure", i, tx.State())
		}
		if err := tx.Start(PeripheralSPI2); err != nil {
			t.Fatal(err)
		}
		if tx.State() != Running || !sim.Running(0, Out) {
			t.Fatalf("cycle %d: state %v after Start", i, tx.State())
		}
		if s := tx.Poll(); s.Done || s.DescriptorError {
			t.Fatalf("cycle %d: status %+v before completion", i, s)
		}
		sim.Complete(0, Out)
		if s := tx.Poll(); !s.Done || s.DescriptorError {
			t.Fatalf("cycle %d: status %+v after completion", i, s)
		}
		if tx.State() != Complete {
			t.Fatalf("cycle %d: state %v after completion", i, tx.State())
		}
		if err := tx.Acknowledge(); err != nil {
			t.Fatal(err)
		}
		if s := tx.Poll(); s.Done {
			t.Fatalf("cycle %d: still done after Acknowledge", i)
		}
		if tx.State() != Idle {
			t.Fatalf("cycle %d: state %v after Acknowledge", i, tx.State())
		}
	}
}

func TestStartTwice(t *testing.T) {
	sim, ch := newChannel(t, ESP32C3, 1)
	if err := ch.Rx.Configure(ch.Rx.Chain()); err != nil {
		t.Fatal(err)
	}
	if err := ch.Rx.Start(PeripheralUHCI0); err != nil {
		t.Fatal(err)
	}
	writes := sim.Writes()
	if err := ch.Rx.Start(PeripheralUHCI0); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("second Start: %v, want %v", err, ErrNotConfigured)
	}
	if sim.Writes() != writes {
		t.Error("rejected Start wrote registers")
	}
	if ch.Rx.State() != Running || !sim.Running(1, In) {
		t.Error("rejected Start disturbed the running transfer")
	}
}

func TestStartUnconfigured(t *testing.T) {
	_, ch := newChannel(t, ESP32C3, 0)
	if err := ch.Tx.Start(PeripheralSPI2); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Start: %v, want %v", err, ErrNotConfigured)
	}
}

func TestConfigureSequencing(t *testing.T) {
	sim, ch := newChannel(t, ESP32S3, 3)
	tx := ch.Tx
	chain := tx.Chain()
	if err := tx.Configure(chain); err != nil {
		t.Fatal(err)
	}
	// Reconfiguring before start is allowed.
	if err := tx.Configure(Chain{0x3fc9_0000, 1}); err != nil {
		t.Fatal(err)
	}
	if got := sim.DescriptorBase(3, Out); got != 0x9_0000 {
		t.Errorf("descriptor base %#x after reconfiguration", got)
	}
	if err := tx.Start(PeripheralSHA); err != nil {
		t.Fatal(err)
	}
	if err := tx.Configure(chain); !errors.Is(err, ErrBusy) {
		t.Errorf("Configure while running: %v, want %v", err, ErrBusy)
	}
	if err := tx.Acknowledge(); !errors.Is(err, ErrBusy) {
		t.Errorf("Acknowledge while running: %v, want %v", err, ErrBusy)
	}
	sim.Complete(3, Out)
	tx.Poll()
	if err := tx.Configure(chain); !errors.Is(err, ErrNotAcknowledged) {
		t.Errorf("Configure before Acknowledge: %v, want %v", err, ErrNotAcknowledged)
	}
	if err := tx.Acknowledge(); err != nil {
		t.Fatal(err)
	}
	if err := tx.Configure(chain); err != nil {
		t.Error(err)
	}
}

func TestConfigureEmptyChain(t *testing.T) {
	sim, ch := newChannel(t, ESP32C3, 2)
	writes := sim.Writes()
	for _, c := range []Chain{{}, {Base: 0x3fc8_0000}, {Len: 3}} {
		if err := ch.Rx.Configure(c); !errors.Is(err, ErrEmptyChain) {
			t.Errorf("Configure(%+v): %v, want %v", c, err, ErrEmptyChain)
		}
	}
	if sim.Writes() != writes {
		t.Error("rejected Configure wrote registers")
	}
	if ch.Rx.State() != Idle {
		t.Errorf("state %v after rejected Configure", ch.Rx.State())
	}
}

func TestUnsuitablePeripheral(t *testing.T) {
	_, ch := newChannel(t, ESP32C2, 0)
	if ch.Supports(PeripheralI2S0) {
		t.Fatal("esp32c2 channel claims i2s0")
	}
	if !ch.Supports(PeripheralSPI2) {
		t.Fatal("esp32c2 channel refuses spi2")
	}
	if err := ch.Tx.Configure(ch.Tx.Chain()); err != nil {
		t.Fatal(err)
	}
	if err := ch.Tx.Start(PeripheralI2S0); !errors.Is(err, ErrUnsuitablePeripheral) {
		t.Errorf("Start(i2s0): %v, want %v", err, ErrUnsuitablePeripheral)
	}
	if ch.Tx.State() != Configured {
		t.Errorf("state %v after rejected Start", ch.Tx.State())
	}
	if err := ch.Tx.Start(PeripheralSPI2); err != nil {
		t.Error(err)
	}
}

func TestDescriptorError(t *testing.T) {
	sim, ch := newChannel(t, ESP32C3, 0)
	rx := ch.Rx
	if err := rx.Configure(rx.Chain()); err != nil {
		t.Fatal(err)
	}
	if err := rx.Start(PeripheralADC); err != nil {
		t.Fatal(err)
	}
	sim.FailDescriptor(0, In)
	if err := rx.Wait(context.Background()); !errors.Is(err, ErrDescriptor) {
		t.Errorf("Wait: %v, want %v", err, ErrDescriptor)
	}
	s := rx.Poll()
	if !s.DescriptorError || s.Done {
		t.Fatalf("status %+v after descriptor error", s)
	}
	if rx.State() != Complete {
		t.Errorf("state %v after descriptor error", rx.State())
	}
	if err := rx.Configure(rx.Chain()); !errors.Is(err, ErrNotAcknowledged) {
		t.Errorf("Configure before Acknowledge: %v, want %v", err, ErrNotAcknowledged)
	}
	if err := rx.Acknowledge(); err != nil {
		t.Fatal(err)
	}
	if s := rx.Poll(); s.DescriptorError || rx.State() != Idle {
		t.Errorf("status %+v, state %v after Acknowledge", s, rx.State())
	}
	if err := rx.Configure(rx.Chain()); err != nil {
		t.Fatal(err)
	}
	if err := rx.Start(PeripheralADC); err != nil {
		t.Fatal(err)
	}
	sim.Complete(0, In)
	if s := rx.Poll(); !s.Done || s.DescriptorError {
		t.Errorf("status %+v after retried transfer", s)
	}
}

func TestDescriptorErrorHalt(t *testing.T) {
	sim, ch := newChannel(t, ESP32S3, 1)
	tx := ch.Tx
	if err := tx.Configure(tx.Chain()); err != nil {
		t.Fatal(err)
	}
	if err := tx.Start(PeripheralAES); err != nil {
		t.Fatal(err)
	}
	sim.FailDescriptor(1, Out)
	tx.Poll()
	tx.Halt()
	if s := tx.Poll(); s.DescriptorError || tx.State() != Idle {
		t.Errorf("status %+v, state %v after Halt", s, tx.State())
	}
}

func TestWait(t *testing.T) {
	sim, ch := newChannel(t, ESP32C3, 0)
	tx := ch.Tx
	if err := tx.Wait(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Wait on idle transfer: %v, want %v", err, ErrNotRunning)
	}
	if err := tx.Configure(tx.Chain()); err != nil {
		t.Fatal(err)
	}
	if err := tx.Start(PeripheralSPI2); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := tx.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait without completion: %v, want %v", err, context.DeadlineExceeded)
	}
	sim.Complete(0, Out)
	if err := tx.Wait(context.Background()); err != nil {
		t.Errorf("Wait after completion: %v", err)
	}
	if tx.State() != Complete {
		t.Errorf("state %v after Wait", tx.State())
	}
}

func TestDirectionsIndependent(t *testing.T) {
	sim, ch := newChannel(t, ESP32C3, 2)
	if err := ch.Rx.Configure(ch.Rx.Chain()); err != nil {
		t.Fatal(err)
	}
	if err := ch.Tx.Configure(ch.Tx.Chain()); err != nil {
		t.Fatal(err)
	}
	if err := ch.Rx.Start(PeripheralI2S0); err != nil {
		t.Fatal(err)
	}
	sim.Complete(2, In)
	if ch.Tx.Poll().Done {
		t.Error("rx completion reported on tx")
	}
	if ch.Tx.State() != Configured {
		t.Errorf("tx state %v", ch.Tx.State())
	}
	if err := ch.Tx.Start(PeripheralI2S0); err != nil {
		t.Fatal(err)
	}
	if !ch.Rx.Poll().Done {
		t.Error("rx not done")
	}
	if err := ch.Rx.Acknowledge(); err != nil {
		t.Fatal(err)
	}
	if !sim.Running(2, Out) || ch.Tx.State() != Running {
		t.Error("acknowledging rx disturbed tx")
	}
}

func TestChannelHalt(t *testing.T) {
	sim, ch := newChannel(t, ESP32S3, 0)
	for _, tr := range []*transfer{&ch.Tx.transfer, &ch.Rx.transfer} {
		if err := tr.Configure(tr.Chain()); err != nil {
			t.Fatal(err)
		}
		if err := tr.Start(PeripheralRMT); err != nil {
			t.Fatal(err)
		}
	}
	sim.Complete(0, In)
	if err := ch.Halt(); err != nil {
		t.Fatal(err)
	}
	for _, dir := range []Dir{Out, In} {
		if sim.Running(0, dir) || sim.Status(0, dir) != 0 {
			t.Errorf("%v still active after Halt", dir)
		}
	}
	if ch.Tx.State() != Idle || ch.Rx.State() != Idle {
		t.Errorf("states %v, %v after Halt", ch.Tx.State(), ch.Rx.State())
	}
	if got := ch.String(); got != "gdma.ch0" {
		t.Errorf("String() = %q", got)
	}
}

func TestPeripherals(t *testing.T) {
	s := PeripheralSet(PeripheralSPI2, PeripheralADC)
	if !s.Has(PeripheralSPI2) || !s.Has(PeripheralADC) || s.Has(PeripheralAES) {
		t.Errorf("set %v membership", s)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d", s.Len())
	}
	if got := s.String(); got != "{spi2,adc}" {
		t.Errorf("String() = %q", got)
	}
	if s.Has(40) {
		t.Error("out of range id reported present")
	}
	if got := ESP32S3.Peripherals[0].Len(); got != 10 {
		t.Errorf("esp32s3 channel serves %d peripherals", got)
	}
}

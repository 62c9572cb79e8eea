package netstate_test

import (
	"testing"
	"time"

	"github.com/xraph/syncengine/netstate"
)

func TestManual_InitialState(t *testing.T) {
	if !netstate.NewManual(true).Online() {
		t.Error("expected online")
	}
	if netstate.NewManual(false).Online() {
		t.Error("expected offline")
	}
}

func TestManual_SetOnlineNotifiesSubscribers(t *testing.T) {
	m := netstate.NewManual(false)

	ch, cancel := m.Subscribe()
	defer cancel()

	m.SetOnline(true)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change pulse")
	}

	if !m.Online() {
		t.Error("expected online after SetOnline(true)")
	}
}

func TestManual_NoPulseWithoutChange(t *testing.T) {
	m := netstate.NewManual(true)

	ch, cancel := m.Subscribe()
	defer cancel()

	m.SetOnline(true) // no change

	select {
	case <-ch:
		t.Fatal("unexpected pulse for a no-op state set")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManual_PulsesCoalesce(t *testing.T) {
	m := netstate.NewManual(false)

	ch, cancel := m.Subscribe()
	defer cancel()

	// Multiple changes before the subscriber reads must not block the
	// notifier and must leave at least one pulse pending.
	m.SetOnline(true)
	m.SetOnline(false)
	m.SetOnline(true)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected at least one coalesced pulse")
	}
}

func TestManual_CancelStopsDelivery(t *testing.T) {
	m := netstate.NewManual(false)

	ch, cancel := m.Subscribe()
	cancel()

	m.SetOnline(true)

	select {
	case <-ch:
		t.Fatal("cancelled subscription should not receive pulses")
	case <-time.After(50 * time.Millisecond):
	}
}

package dialog

import (
	"errors"
	"testing"

	"github.com/adamavenir/gram/internal/coordinator"
)

func TestMachineTransitions(t *testing.T) {
	var m Machine
	if m.State() != Closed {
		t.Fatalf("expected closed initially, got %s", m.State())
	}
	if err := m.Submit(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady from closed, got %v", err)
	}

	m.Open(true)
	if m.State() != Loading {
		t.Fatalf("expected loading, got %s", m.State())
	}
	if err := m.Submit(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady while loading, got %v", err)
	}
	if !m.Loaded(nil) || m.State() != Ready {
		t.Fatalf("expected ready after load, got %s", m.State())
	}
	if m.Loaded(nil) {
		t.Fatalf("expected second Loaded to be ignored")
	}

	if err := m.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := m.Close(); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("expected close refused while submitting, got %v", err)
	}

	boom := errors.New("boom")
	m.Finish(boom)
	if m.State() != Ready || !errors.Is(m.Err(), boom) {
		t.Fatalf("expected ready with error, got %s/%v", m.State(), m.Err())
	}
	m.Dismiss()
	if m.Err() != nil {
		t.Fatalf("expected dismissed error")
	}

	if err := m.Submit(); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	m.Finish(nil)
	if m.State() != Closed {
		t.Fatalf("expected closed after success, got %s", m.State())
	}
}

func TestMachineBusyIsNotAnError(t *testing.T) {
	var m Machine
	m.Open(false)
	if err := m.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	m.Finish(coordinator.ErrBusy)
	if m.State() != Ready || m.Err() != nil {
		t.Fatalf("expected ready without error, got %s/%v", m.State(), m.Err())
	}
}

func TestMachineLoadErrorIsRetained(t *testing.T) {
	var m Machine
	m.Open(true)
	boom := errors.New("not found")
	m.Loaded(boom)
	if m.State() != Ready || !errors.Is(m.Err(), boom) {
		t.Fatalf("expected ready with load error, got %s/%v", m.State(), m.Err())
	}
	if err := m.Close(); err != nil || m.State() != Closed {
		t.Fatalf("expected close, got %v/%s", err, m.State())
	}
}

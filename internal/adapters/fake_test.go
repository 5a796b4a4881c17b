package adapters

import (
	"errors"
	"testing"
)

func TestFake_Loopback(t *testing.T) {
	f := NewFake()
	if err := f.Write("VOLT 1.5"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := f.Write("VOLT?"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := f.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != "VOLT 1.5" {
		t.Errorf("Read() = %q, want oldest write first", got)
	}
	if f.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", f.Pending())
	}
}

func TestFake_EmptyRead(t *testing.T) {
	f := NewFake()
	if _, err := f.Read(); !errors.Is(err, ErrNoData) {
		t.Errorf("Read() error = %v, want ErrNoData", err)
	}
}

func TestFake_Closed(t *testing.T) {
	f := NewFake()
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := f.Write("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Write() after close error = %v, want ErrClosed", err)
	}
	if _, err := f.Read(); !errors.Is(err, ErrClosed) {
		t.Errorf("Read() after close error = %v, want ErrClosed", err)
	}
}

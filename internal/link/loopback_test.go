package link

import (
	"errors"
	"testing"
	"time"
)

func TestLoopback_RoundTrip(t *testing.T) {
	a, b := NewLoopback()
	defer a.Close()
	defer b.Close()

	if err := a.WriteByte(0x42); err != nil {
		t.Fatalf("WriteByte failed: %v", err)
	}

	got, err := b.ReadByte()
	if err != nil {
		t.Fatalf("ReadByte failed: %v", err)
	}
	if got != 0x42 {
		t.Errorf("ReadByte = %#x, want 0x42", got)
	}
}

func TestLoopback_TryReadByte(t *testing.T) {
	a, b := NewLoopback()
	defer a.Close()
	defer b.Close()

	// Nothing pending yet
	_, ok, err := b.TryReadByte()
	if err != nil {
		t.Fatalf("TryReadByte failed: %v", err)
	}
	if ok {
		t.Error("TryReadByte reported a byte on an empty link")
	}

	a.WriteByte(0x11)
	a.WriteByte(0x22)

	got, ok, err := b.TryReadByte()
	if err != nil || !ok {
		t.Fatalf("TryReadByte = (%#x, %v, %v), want byte", got, ok, err)
	}
	if got != 0x11 {
		t.Errorf("first byte = %#x, want 0x11 (FIFO order)", got)
	}

	got, ok, _ = b.TryReadByte()
	if !ok || got != 0x22 {
		t.Errorf("second byte = (%#x, %v), want (0x22, true)", got, ok)
	}
}

func TestLoopback_ReadBlocksUntilWrite(t *testing.T) {
	a, b := NewLoopback()
	defer a.Close()
	defer b.Close()

	done := make(chan byte, 1)
	go func() {
		got, err := b.ReadByte()
		if err != nil {
			t.Errorf("ReadByte failed: %v", err)
		}
		done <- got
	}()

	time.Sleep(10 * time.Millisecond)
	a.WriteByte(0x88)

	select {
	case got := <-done:
		if got != 0x88 {
			t.Errorf("ReadByte = %#x, want 0x88", got)
		}
	case <-time.After(time.Second):
		t.Fatal("ReadByte did not unblock after write")
	}
}

func TestLoopback_Closed(t *testing.T) {
	a, b := NewLoopback()
	a.WriteByte(0x01)
	a.Close()

	// Byte written before close is still readable
	got, err := b.ReadByte()
	if err != nil || got != 0x01 {
		t.Fatalf("ReadByte after peer close = (%#x, %v), want (0x01, nil)", got, err)
	}

	// Past the end reads fail with ErrClosed
	if _, err := b.ReadByte(); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadByte on drained closed link = %v, want ErrClosed", err)
	}
	if _, _, err := b.TryReadByte(); !errors.Is(err, ErrClosed) {
		t.Errorf("TryReadByte on drained closed link = %v, want ErrClosed", err)
	}

	if err := a.WriteByte(0x02); !errors.Is(err, ErrClosed) {
		t.Errorf("WriteByte after close = %v, want ErrClosed", err)
	}
}

package adc

import (
	"context"
	"fmt"
	"testing"
)

func TestMockChannelReader_PerChannel(t *testing.T) {
	codes := map[Channel]int16{AIN0: 1200, AIN1: -5, AIN3: 32767}
	calls := 0
	a := NewMockChannelReader(func(ctx context.Context, ch Channel) (int16, error) {
		calls++
		if !ch.Valid() {
			return 0, ErrInvalidChannel
		}
		return codes[ch], nil
	})
	ctx := context.Background()

	for ch, want := range codes {
		got, err := a.ReadChannel(ctx, ch)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", ch, err)
		}
		if got != want {
			t.Errorf("%s: expected %d, got %d", ch, want, got)
		}
	}
	if _, err := a.ReadChannel(ctx, Channel(7)); err != ErrInvalidChannel {
		t.Errorf("expected invalid channel error, got %v", err)
	}
	if calls != len(codes)+1 {
		t.Errorf("expected %d calls, got %d", len(codes)+1, calls)
	}
}

func TestMockChannelReader_ErrorHandling(t *testing.T) {
	a := NewMockChannelReader(func(ctx context.Context, ch Channel) (int16, error) {
		return 0, fmt.Errorf("%s: no acknowledge", ch)
	})
	_, err := a.ReadChannel(context.Background(), AIN2)
	if err == nil || err.Error() != "AIN2: no acknowledge" {
		t.Errorf("expected specific error, got %v", err)
	}
}

package outlet

import (
	"context"
	"testing"

	"github.com/nerrad567/smarthome-core/internal/device"
)

func TestHandler_HandleRequest(t *testing.T) {
	tests := []struct {
		name    string
		initial bool
		request string
		want    string
		wantOn  bool
	}{
		{
			name:    "on",
			initial: false,
			request: "on",
			want:    "Name: X\nDescription: Y\nCurrent state: on, 220 Volts",
			wantOn:  true,
		},
		{
			name:    "off",
			initial: true,
			request: "off",
			want:    "Name: X\nDescription: Y\nCurrent state: off, 220 Volts",
			wantOn:  false,
		},
		{
			name:    "info does not mutate",
			initial: true,
			request: "info",
			want:    "Name: X\nDescription: Y\nCurrent state: on, 220 Volts",
			wantOn:  true,
		},
		{
			name:    "state",
			initial: true,
			request: "state",
			want:    "on",
			wantOn:  true,
		},
		{
			name:    "unknown",
			initial: false,
			request: "test",
			want:    UnknownCommandResponse,
			wantOn:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := device.NewOutlet("X", "Y", tt.initial, 220.0)
			h := NewHandler(o)

			if got := h.HandleRequest(context.Background(), tt.request); got != tt.want {
				t.Errorf("HandleRequest(%q) = %q, want %q", tt.request, got, tt.want)
			}
			if o.IsOn() != tt.wantOn {
				t.Errorf("IsOn() = %v, want %v", o.IsOn(), tt.wantOn)
			}
		})
	}
}

func TestHandler_Observers(t *testing.T) {
	h := NewHandler(device.NewOutlet("X", "Y", false, 220))

	var got []device.OutletState
	h.AddObserver(StateObserverFunc(func(_ context.Context, st device.OutletState) {
		got = append(got, st)
	}))

	ctx := context.Background()
	h.HandleRequest(ctx, "on")
	h.HandleRequest(ctx, "info")
	h.HandleRequest(ctx, "state")
	h.HandleRequest(ctx, "nope")
	h.HandleRequest(ctx, "off")

	if len(got) != 2 {
		t.Fatalf("observer called %d times, want 2", len(got))
	}
	if !got[0].IsOn || got[1].IsOn {
		t.Errorf("observed states = %+v, want on then off", got)
	}
}

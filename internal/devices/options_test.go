package devices

import (
	"testing"
	"time"

	"github.com/mwhitfield/leapgate/internal/infrastructure/config"
)

func TestResolveOptions(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.OptionsConfig
		wantDouble time.Duration
		wantLong   time.Duration
	}{
		{
			name:       "quick",
			cfg:        config.OptionsConfig{DoubleClickSpeed: "quick", LongClickSpeed: "quick"},
			wantDouble: 250 * time.Millisecond,
			wantLong:   350 * time.Millisecond,
		},
		{
			name:       "relaxed",
			cfg:        config.OptionsConfig{DoubleClickSpeed: "relaxed", LongClickSpeed: "relaxed"},
			wantDouble: 450 * time.Millisecond,
			wantLong:   750 * time.Millisecond,
		},
		{
			name:       "empty falls back to default",
			cfg:        config.OptionsConfig{},
			wantDouble: 350 * time.Millisecond,
			wantLong:   500 * time.Millisecond,
		},
		{
			name:       "mixed presets",
			cfg:        config.OptionsConfig{DoubleClickSpeed: "quick", LongClickSpeed: "relaxed"},
			wantDouble: 250 * time.Millisecond,
			wantLong:   750 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := ResolveOptions(tt.cfg)
			if opts.DoubleClickWindow != tt.wantDouble {
				t.Errorf("DoubleClickWindow = %v, want %v", opts.DoubleClickWindow, tt.wantDouble)
			}
			if opts.LongPressThreshold != tt.wantLong {
				t.Errorf("LongPressThreshold = %v, want %v", opts.LongPressThreshold, tt.wantLong)
			}
		})
	}
}

func TestResolveOptions_Filters(t *testing.T) {
	opts := ResolveOptions(config.OptionsConfig{FilterRemotes: true, FilterBlinds: true})
	if !opts.FilterRemotes || !opts.FilterBlinds {
		t.Errorf("filters not carried: %+v", opts)
	}
}

func TestParseTiltCommand(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
		wantErr bool
	}{
		{"bare number", "50", 50, false},
		{"json object", `{"tilt": 75}`, 75, false},
		{"clamps high", "150", 100, false},
		{"clamps low", "-10", 0, false},
		{"garbage", "open sesame", 0, true},
		{"object without tilt", `{"level": 5}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTiltCommand([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("tilt = %d, want %d", got, tt.want)
			}
		})
	}
}

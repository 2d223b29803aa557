package indicator

import (
	"sync"
	"testing"

	"acoustic-telemetry/internal/models"
)

func TestBankDrive(t *testing.T) {
	bank, pins := NewPinBank()

	tests := []struct {
		state models.IndicatorState
		want  [models.Channels]uint8
	}{
		{models.IndicatorChannel1, [4]uint8{On, Off, Off, Off}},
		{models.IndicatorChannel3, [4]uint8{Off, Off, On, Off}},
		{models.IndicatorNone, [4]uint8{Off, Off, Off, Off}},
		{models.IndicatorChannel4, [4]uint8{Off, Off, Off, On}},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			bank.Drive(tt.state)
			for i, p := range pins {
				if p.Level() != tt.want[i] {
					t.Errorf("%s: expected %d, got %d", p.Name(), tt.want[i], p.Level())
				}
			}
		})
	}
}

func TestPinNames(t *testing.T) {
	_, pins := NewPinBank()
	if pins[0].Name() != "channel-1" || pins[3].Name() != "channel-4" {
		t.Errorf("Unexpected pin names %s, %s", pins[0].Name(), pins[3].Name())
	}
}

func TestPinConcurrentWrites(t *testing.T) {
	p := NewPin("status")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				p.SetLevel(On)
			}
		}()
	}
	wg.Wait()

	if p.Level() != On {
		t.Errorf("Expected On, got %d", p.Level())
	}
}

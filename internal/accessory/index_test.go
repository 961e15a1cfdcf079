package accessory

import (
	"sync"
	"testing"

	"github.com/mwhitfield/leapgate/internal/leap"
)

func testAccessory(serial string) Accessory {
	return New("bridge1", leap.DeviceRecord{
		Name:         "Pico",
		DeviceType:   "Pico3Button",
		SerialNumber: leap.SerialNumber(serial),
	})
}

func TestIDForSerial_Deterministic(t *testing.T) {
	a := IDForSerial("68130838")
	b := IDForSerial("68130838")
	if a != b {
		t.Errorf("same serial produced different UUIDs: %q vs %q", a, b)
	}
	if c := IDForSerial("68130839"); c == a {
		t.Error("different serials produced the same UUID")
	}
}

func TestIndex_AddIsTestAndSet(t *testing.T) {
	idx := NewIndex()
	acc := testAccessory("100")

	if !idx.Add(acc) {
		t.Fatal("first Add() = false, want true")
	}
	if idx.Add(acc) {
		t.Error("second Add() = true, want false")
	}
	if got := idx.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
	if !idx.Has(acc.UUID) {
		t.Error("Has() = false after Add")
	}
}

func TestIndex_ConcurrentAddSingleWinner(t *testing.T) {
	idx := NewIndex()
	acc := testAccessory("200")

	const racers = 16
	var (
		wg   sync.WaitGroup
		wins int64
		mu   sync.Mutex
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if idx.Add(acc) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("got %d winning Adds, want exactly 1", wins)
	}
	if idx.Len() != 1 {
		t.Errorf("Len() = %d, want 1", idx.Len())
	}
}

func TestIndex_All(t *testing.T) {
	idx := NewIndex()
	idx.Add(testAccessory("1"))
	idx.Add(testAccessory("2"))

	if got := len(idx.All()); got != 2 {
		t.Errorf("len(All()) = %d, want 2", got)
	}
}

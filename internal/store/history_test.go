package store

import (
	"testing"
	"time"
)

func reading(i int) Reading {
	return Reading{Timestamp: time.Unix(int64(i)*60, 0).UTC(), Value: float64(i)}
}

func TestHistory_PushBelowCapacity(t *testing.T) {
	h := NewHistory(4)
	for i := 0; i < 3; i++ {
		if evicted := h.Push(reading(i)); evicted {
			t.Errorf("Push(%d) evicted below capacity", i)
		}
	}

	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}
	all := h.All()
	for i, r := range all {
		if r.Value != float64(i) {
			t.Errorf("All()[%d].Value = %v, want %v", i, r.Value, i)
		}
	}
}

func TestHistory_EvictsOldestWhenFull(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Push(reading(i))
	}

	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}

	want := []float64{2, 3, 4}
	for i, r := range h.All() {
		if r.Value != want[i] {
			t.Errorf("All()[%d].Value = %v, want %v", i, r.Value, want[i])
		}
	}

	last, ok := h.Last()
	if !ok || last.Value != 4 {
		t.Errorf("Last() = %v, %v; want 4, true", last.Value, ok)
	}
}

func TestHistory_Tail(t *testing.T) {
	h := NewHistory(5)
	for i := 0; i < 7; i++ {
		h.Push(reading(i))
	}

	tests := []struct {
		name string
		n    int
		want []float64
	}{
		{"last two", 2, []float64{5, 6}},
		{"exactly len", 5, []float64{2, 3, 4, 5, 6}},
		{"more than len", 50, []float64{2, 3, 4, 5, 6}},
		{"zero", 0, []float64{}},
		{"negative", -3, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.Tail(tt.n)
			if got == nil {
				t.Fatal("Tail() = nil, want non-nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len(Tail(%d)) = %d, want %d", tt.n, len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Value != tt.want[i] {
					t.Errorf("Tail(%d)[%d] = %v, want %v", tt.n, i, got[i].Value, tt.want[i])
				}
			}
		})
	}
}

func TestHistory_EmptyLast(t *testing.T) {
	h := NewHistory(2)
	if _, ok := h.Last(); ok {
		t.Error("Last() on empty history reported ok")
	}
	if len(h.All()) != 0 {
		t.Error("All() on empty history should be empty")
	}
}

func TestHistory_ReturnsCopies(t *testing.T) {
	h := NewHistory(2)
	h.Push(reading(1))

	all := h.All()
	all[0].Value = 99

	if last, _ := h.Last(); last.Value != 1 {
		t.Errorf("mutating All() result changed history: Last().Value = %v", last.Value)
	}
}

func TestNewHistory_MinimumCapacity(t *testing.T) {
	h := NewHistory(0)
	if h.Cap() != 1 {
		t.Errorf("Cap() = %d, want 1", h.Cap())
	}
}

package reactor

import "testing"

func TestNewSlotTablePreallocatesEverySlot(t *testing.T) {
	table := NewSlotTable(16)
	if table.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", table.Len())
	}
	for fd := 0; fd < 16; fd++ {
		if table.Get(fd) == nil {
			t.Fatalf("slot %d not preallocated", fd)
		}
	}
}

func TestSlotTableGetOutOfRangePanics(t *testing.T) {
	table := NewSlotTable(4)
	defer func() {
		if recover() == nil {
			t.Fatal("expected Get to panic on an out-of-range fd")
		}
	}()
	table.Get(4)
}

func TestSlotTableGetIsStablePerFd(t *testing.T) {
	table := NewSlotTable(4)
	a := table.Get(2)
	a.reset(2)
	a.responseBuffer.WriteString("hello")

	b := table.Get(2)
	if b.responseBuffer.String() != "hello" {
		t.Fatal("Get(2) must return the same slot instance across calls")
	}
}

package moodle

import "testing"

func TestDeriveIdentifiersDisjoint(t *testing.T) {
	for _, start := range []int64{1, 5000, MaxDisjointModuleID - 1000} {
		seen := map[int64]int64{}
		for m := start; m < start+1000; m++ {
			ids := DeriveIdentifiers(m)
			for _, v := range []int64{ids.ActivityID, ids.QuizID, ids.InstanceBase, ids.SlotBase} {
				if prev, ok := seen[v]; ok {
					t.Fatalf("id %d derived for both moduleid %d and %d", v, prev, m)
				}
				seen[v] = m
			}
		}
	}
}

func TestActivityIDsStayBelowInstanceRange(t *testing.T) {
	hi := DeriveIdentifiers(MaxDisjointModuleID - 1)
	lo := DeriveIdentifiers(1)
	if hi.QuizID >= lo.InstanceBase {
		t.Fatalf("quiz id %d reaches the instance range starting %d", hi.QuizID, lo.InstanceBase)
	}
}

func TestDeriveIdentifiersSlotRanges(t *testing.T) {
	a, b := DeriveIdentifiers(5000), DeriveIdentifiers(5001)
	if got := a.InstanceID(499); got >= a.SlotID(1) {
		t.Fatalf("instance id %d runs into slot range starting %d", got, a.SlotID(1))
	}
	if got := a.SlotID(499); got >= b.InstanceID(1) {
		t.Fatalf("slot id %d runs into next quiz's instances at %d", got, b.InstanceID(1))
	}
	if a.ActivityID != 50000 || a.QuizID != 50001 || a.InstanceBase != 10005000000 || a.SlotBase != 10005000500 {
		t.Fatalf("unexpected identifiers %+v", a)
	}
}

func TestDeriveIdentifiersClamps(t *testing.T) {
	for _, m := range []int64{0, -7} {
		if got, want := DeriveIdentifiers(m), DeriveIdentifiers(1); got != want {
			t.Fatalf("moduleid %d: got %+v, want %+v", m, got, want)
		}
	}
}

func TestAllocatorPerNamespace(t *testing.T) {
	a := NewAllocator()
	if got := a.Next(NSCategory); got != 1000 {
		t.Fatalf("first category id = %d", got)
	}
	if got := a.Next(NSCategory); got != 1001 {
		t.Fatalf("second category id = %d", got)
	}
	if got := a.Next(NSQuestion); got != 35640000 {
		t.Fatalf("first question id = %d", got)
	}
	// a fresh allocator starts over
	if got := NewAllocator().Next(NSCategory); got != 1000 {
		t.Fatalf("fresh allocator gave %d", got)
	}
}

package arena

import "testing"

func TestAllocStringSurvivesWithinScope(t *testing.T) {
	a := New()
	names := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		names = append(names, a.AllocString("t"+string(rune('0'+i%10))))
	}
	for i, n := range names {
		want := "t" + string(rune('0'+i%10))
		if n != want {
			t.Fatalf("names[%d] = %q, want %q", i, n, want)
		}
	}
}

func TestAllocCrossesBlockBoundary(t *testing.T) {
	a := New()
	big := make([]byte, firstBlockSize+1)
	for i := range big {
		big[i] = 'x'
	}
	p := a.Alloc(len(big))
	if len(p) != len(big) {
		t.Fatalf("Alloc(%d) returned %d bytes", len(big), len(p))
	}
	if a.first == a.last {
		t.Fatalf("expected a new block to have been chained")
	}
}

func TestResetRewindsAndReusesBlocks(t *testing.T) {
	a := New()
	first := a.AllocString("before-reset")
	_ = first
	a.Reset()
	if a.last != a.first {
		t.Fatalf("Reset did not rewind to first block")
	}
	if a.first.used != 0 {
		t.Fatalf("Reset did not zero the first block's bump pointer")
	}
	again := a.AllocString("after-reset")
	if again != "after-reset" {
		t.Fatalf("allocation after reset corrupted: %q", again)
	}
}

package score

import "testing"

func TestDistanceIdenticalIsZero(t *testing.T) {
	block := []byte{1, 2, 3, 4}
	c := []byte{5, 6}
	if d := Distance(block, block, c, c, 1, 32); d != 0 {
		t.Errorf("Distance of identical pairs = %d, want 0", d)
	}
}

func TestDistanceWeightsChecksumByPenaltyAndRedundancy(t *testing.T) {
	b1 := []byte{0x00}
	b2 := []byte{0x00}
	c1 := []byte{0x00}
	c2 := []byte{0x01} // 1 bit different
	got := Distance(b1, b2, c1, c2, 3, 8)
	want := uint64(0) + 3*8*1
	if got != want {
		t.Errorf("Distance = %d, want %d", got, want)
	}
}

func TestDistanceAddsBlockAndChecksumTerms(t *testing.T) {
	b1 := []byte{0x0F} // 4 bits differ from 0x00
	b2 := []byte{0x00}
	c1 := []byte{0x00}
	c2 := []byte{0x00}
	got := Distance(b1, b2, c1, c2, 2, 4)
	if got != 4 {
		t.Errorf("Distance = %d, want 4", got)
	}
}

func TestAmbivalAvgGreaterThanMin(t *testing.T) {
	// n=3, minDist=2, avgDist=4 -> round(100*3*2/(4-2)) = round(300) = 300
	got := Ambival(3, 2, 4)
	if got != 300 {
		t.Errorf("Ambival = %d, want 300", got)
	}
}

func TestAmbivalAvgEqualsMinFallback(t *testing.T) {
	// avgDist == minDist takes the fallback branch
	got := Ambival(2, 5, 5)
	want := int64(100 * 2 * 5 * 10000)
	if got != want {
		t.Errorf("Ambival = %d, want %d", got, want)
	}
}

func TestAmbivalMonotonicWithHitCount(t *testing.T) {
	low := Ambival(2, 1, 3)
	high := Ambival(5, 1, 3)
	if high <= low {
		t.Errorf("Ambival should grow with n: n=2 -> %d, n=5 -> %d", low, high)
	}
}

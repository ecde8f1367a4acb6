package fm

import "math"

const sineTableSize = 1024

// sineTable is a shared read-only lookup table for one sine cycle. Reads
// interpolate linearly between adjacent entries.
var sineTable = buildSineTable()

func buildSineTable() *[sineTableSize]float32 {
	var t [sineTableSize]float32
	for i := range t {
		t[i] = float32(math.Sin(2 * math.Pi * float64(i) / sineTableSize))
	}
	return &t
}

// sineAt reads the table at a normalized phase in [0,1).
func sineAt(phase float32) float32 {
	pos := phase * sineTableSize
	idx := int(pos)
	frac := pos - float32(idx)
	idx &= sineTableSize - 1
	next := (idx + 1) & (sineTableSize - 1)
	a := sineTable[idx]
	b := sineTable[next]
	return a + frac*(b-a)
}

package bitrepair

// Summary reports per-block outcome counts for a single task invocation
// (generate, verify, repair, restore, execute). Each of these task entry
// points returns one alongside its error. Failed counts blocks whose
// outcome was unsuccessful (a verify mismatch, an unresolved repair or
// restore, a failed execute write) while the task goes on with the
// remaining blocks. An I/O error while reading a block is not counted
// here: generate, verify, repair and restore stop at it and return the
// error with an empty Summary.
type Summary struct {
	OK        int
	Ambiguous int
	Failed    int
	Total     int
}

// Add folds another summary's counts into this one.
func (s *Summary) Add(other Summary) {
	s.OK += other.OK
	s.Ambiguous += other.Ambiguous
	s.Failed += other.Failed
	s.Total += other.Total
}

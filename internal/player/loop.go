// ABOUTME: Song loop detection
// ABOUTME: Counts completed playbacks from the decoder's still-playing flag
package player

// LoopState counts how often a song has played through. Once a decoder
// reports it reached the end, the number of steps until that first report
// is taken as the song length and every further stretch of that length
// counts as one more playback.
type LoopState struct {
	// Budget is the number of playbacks to stop after, 0 for endless
	Budget int

	// Completed is the number of finished playbacks
	Completed int

	steps    int
	loopStep int
}

// Observe records one step and reports whether it completed a playback
func (l *LoopState) Observe(playing bool) bool {
	l.steps++
	if playing {
		return false
	}
	if l.loopStep == 0 {
		l.loopStep = l.steps
	}
	if l.steps != l.loopStep {
		return false
	}
	l.Completed++
	l.steps = 0
	return true
}

// Done reports whether the budget is used up
func (l *LoopState) Done() bool {
	return l.Budget > 0 && l.Completed >= l.Budget
}

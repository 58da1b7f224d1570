package wizard

import "time"

const (
	defaultRevealChunk = 5
	revealDelayShort   = 10 * time.Millisecond
	revealDelayLong    = 2 * time.Millisecond
	longRevealRunes    = 500
)

// Pacing controls the incremental reveal of a completed step. Zero values
// select the defaults: 5 runes per tick, 10ms apart, 2ms for long texts.
type Pacing struct {
	Chunk int
	Delay time.Duration
}

func (p Pacing) chunkSize() int {
	if p.Chunk > 0 {
		return p.Chunk
	}
	return defaultRevealChunk
}

func (p Pacing) delayFor(runes int) time.Duration {
	if p.Delay > 0 {
		return p.Delay
	}
	if runes >= longRevealRunes {
		return revealDelayLong
	}
	return revealDelayShort
}

// Chunks splits text into pieces of at most size runes.
func Chunks(text string, size int) []string {
	if size <= 0 {
		size = defaultRevealChunk
	}
	runes := []rune(text)
	out := make([]string, 0, len(runes)/size+1)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// reveal is foreground-owned progress for one slot.
type reveal struct {
	rev    uint64
	chunks []string
	next   int
	delay  time.Duration
}

func (s *Session) startReveal(st *state, slot Slot, text string) {
	st.revealRev[slot]++
	r := &reveal{
		rev:    st.revealRev[slot],
		chunks: Chunks(text, s.pacing.chunkSize()),
		delay:  s.pacing.delayFor(len([]rune(text))),
	}
	st.setSurface(slot, "")
	s.scheduleReveal(slot, r)
}

func (s *Session) scheduleReveal(slot Slot, r *reveal) {
	time.AfterFunc(r.delay, func() {
		s.post(func(st *state) { s.revealTick(st, slot, r) })
	})
}

// revealTick appends one chunk. A newer reveal or a direct write to the
// slot bumps the revision and this chain stops.
func (s *Session) revealTick(st *state, slot Slot, r *reveal) {
	if st.revealRev[slot] != r.rev || r.next >= len(r.chunks) {
		return
	}
	st.setSurface(slot, st.surfaces[slot]+r.chunks[r.next])
	r.next++
	if r.next < len(r.chunks) {
		s.scheduleReveal(slot, r)
	}
}

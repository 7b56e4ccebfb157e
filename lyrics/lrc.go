// Package lyrics parses time-tagged transcripts and maps a playback
// position to the active line.
package lyrics

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Epsilon absorbs polling jitter when matching the playback position to a
// line: a position within 50ms of a line's timestamp already activates it.
const Epsilon = 0.05

// Line is one timed transcript line.
type Line struct {
	Time float64 `json:"time"` // seconds from track start
	Text string  `json:"text"`
}

// Transcript is a parsed lyric transcript. Lines are sorted ascending by
// time. A transcript with zero lines is unsynced and disables highlighting.
type Transcript struct {
	Lines  []Line `json:"lines"`
	Synced bool   `json:"synced"`
}

// tagRe matches a bracketed [mm:ss.xx] time tag; centiseconds are optional.
var tagRe = regexp.MustCompile(`\[(\d+):(\d{2}(?:\.\d+)?)\]`)

// Parse reads an LRC-style transcript. Each line may carry multiple time
// tags; every tag expands into one Line sharing that line's text. Lines
// without any tag are ignored. A transcript that yields no lines comes back
// unsynced.
func Parse(raw string) Transcript {
	var out Transcript
	for _, ln := range strings.Split(raw, "\n") {
		matches := tagRe.FindAllStringSubmatch(ln, -1)
		if len(matches) == 0 {
			continue
		}
		text := strings.TrimSpace(tagRe.ReplaceAllString(ln, ""))
		for _, m := range matches {
			mins, err1 := strconv.Atoi(m[1])
			secs, err2 := strconv.ParseFloat(m[2], 64)
			if err1 != nil || err2 != nil {
				continue
			}
			out.Lines = append(out.Lines, Line{
				Time: float64(mins)*60 + secs,
				Text: text,
			})
		}
	}
	sort.SliceStable(out.Lines, func(i, j int) bool {
		return out.Lines[i].Time < out.Lines[j].Time
	})
	out.Synced = len(out.Lines) > 0
	return out
}

// ActiveIndex returns the index of the line active at pos, or -1 when no
// line is active yet. The tag timestamp and the polled position each carry
// up to Epsilon of jitter, so the comparison allows Epsilon of slack on
// both sides, taken on the centisecond grid LRC tags use so the boundary
// stays exact. Binary search keeps this cheap enough to run on every
// animation tick.
func (t Transcript) ActiveIndex(pos float64) int {
	if !t.Synced {
		return -1
	}
	limit := centiseconds(pos) + 2*centiseconds(Epsilon)
	// First line at or past the tolerance window; the active line is the
	// one before it.
	i := sort.Search(len(t.Lines), func(i int) bool {
		return centiseconds(t.Lines[i].Time) >= limit
	})
	return i - 1
}

func centiseconds(s float64) int {
	return int(math.Round(s * 100))
}

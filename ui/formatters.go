package ui

import (
	"fmt"

	"github.com/purplemusic/purplemusic/domain"
)

// FormatDuration converts seconds to MM:SS format
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatTrackInfo creates the status panel text for a track
func FormatTrackInfo(track domain.Track, status, progressBar string, mode domain.PlayMode) string {
	source := string(track.Source)
	if source == "" {
		source = "unknown"
	}

	return fmt.Sprintf(`
%s

[darkgray][duration] %s [darkgray][source] %s
[darkgray][mode] %s

[gray]Artist: [white]%s
[gray]Album:  [white]%s
%s

[darkgray] SPACE (pause)  n/p (next/prev)
[darkgray] ←/→ (seek)  +/- (volume)
[darkgray] s (shuffle)  r (repeat)  f (like)
[darkgray] i (now playing)  ? (help)`,
		status, FormatDuration(track.Duration), source,
		FormatPlayMode(mode),
		track.Artist, track.Album, progressBar)
}

// FormatPlayMode renders the shuffle/repeat indicators
func FormatPlayMode(mode domain.PlayMode) string {
	shuffle := "[darkgray]shuffle off"
	if mode.Shuffle {
		shuffle = "[lightgreen]shuffle on"
	}
	var repeat string
	switch mode.Repeat {
	case domain.RepeatOne:
		repeat = "[lightgreen]repeat one"
	case domain.RepeatAll:
		repeat = "[lightgreen]repeat all"
	default:
		repeat = "[darkgray]repeat off"
	}
	return shuffle + " [darkgray]| " + repeat
}

// CreateProgressBar creates a visual progress bar
func CreateProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filledWidth := int(progress * float64(width))
	var bar string

	for i := 0; i < width; i++ {
		if i < filledWidth {
			bar += "[lightgreen]▓"
		} else {
			bar += "[darkgray]░"
		}
	}
	return bar + fmt.Sprintf("[white] %.1f%%", progress*100)
}

// CreateWelcomeMessage creates the welcome screen message
func CreateWelcomeMessage(totalTracks int) string {
	return fmt.Sprintf(`
[mediumpurple] Welcome to PurpleMusic
[darkgray][play] Ready to Play Music!

[gray]  SPACE (play/pause) | n/p (next/prev)
[gray]  J/K (page) | j/k (row)
[gray]  / (search) | ? (help) | q (queue)
[gray]  i (now playing) | a (sign in) | u (premium)
[gray]  ESC to exit

[darkgray]// %d tracks available
[darkgray]// Auto-play next enabled`, totalTracks)
}

// CreateProgressText creates the transport bar: times, volume and mode.
func CreateProgressText(currentTime, totalTime, volumeText string, playing bool) string {
	state := "[darkgray][paused]"
	if playing {
		state = "[lightgreen][playing]"
	}
	return fmt.Sprintf(`
[darkgray]%s/%s [darkgray][v-] [white]%s [darkgray][v+] %s`, currentTime, totalTime, volumeText, state)
}

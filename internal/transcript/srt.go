package transcript

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// cue is one subtitle block: a time range and its text lines.
type cue struct {
	start time.Duration
	end   time.Duration
	text  []string
}

// FormatSRTTime renders a duration as an SRT timestamp, HH:MM:SS,mmm.
func FormatSRTTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// parseSRTTime parses an HH:MM:SS,mmm timestamp. whisper-cli also emits
// "." as the millisecond separator in some builds, so both are accepted.
func parseSRTTime(s string) (time.Duration, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ".", ",")
	var h, m, sec, ms int
	if _, err := fmt.Sscanf(s, "%d:%d:%d,%d", &h, &m, &sec, &ms); err != nil {
		return 0, fmt.Errorf("invalid SRT timestamp %q: %w", s, err)
	}
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// parseSRT extracts cues from SRT content. Malformed blocks are skipped
// rather than failing the whole fragment.
func parseSRT(content string) []cue {
	var cues []cue

	blocks := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n")
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}

		// lines[0] is the sequence number, lines[1] the time range.
		timeLine := lines[1]
		parts := strings.Split(timeLine, "-->")
		if len(parts) != 2 {
			continue
		}

		start, err := parseSRTTime(parts[0])
		if err != nil {
			continue
		}
		end, err := parseSRTTime(parts[1])
		if err != nil {
			continue
		}

		text := lines[2:]
		if len(text) == 0 {
			continue
		}
		cues = append(cues, cue{start: start, end: end, text: text})
	}

	return cues
}

// AssembleSRT merges per-chunk SRT fragments into one subtitle file.
// Each fragment's timestamps are shifted by the start offset of its chunk
// and the blocks are renumbered into a single sequence. The file is
// written atomically like the text transcript.
func AssembleSRT(fragmentPaths []string, offsets []time.Duration, destPath string) error {
	if len(fragmentPaths) != len(offsets) {
		return fmt.Errorf("fragment/offset count mismatch: %d vs %d", len(fragmentPaths), len(offsets))
	}

	var b strings.Builder
	counter := 1

	for i, path := range fragmentPaths {
		data, err := readFragment(path)
		if err != nil {
			return fmt.Errorf("subtitle fragment %d missing at merge time (%s): %w", i+1, path, err)
		}

		for _, c := range parseSRT(data) {
			fmt.Fprintf(&b, "%d\n", counter)
			fmt.Fprintf(&b, "%s --> %s\n", FormatSRTTime(c.start+offsets[i]), FormatSRTTime(c.end+offsets[i]))
			for _, line := range c.text {
				b.WriteString(line)
				b.WriteString("\n")
			}
			b.WriteString("\n")
			counter++
		}
	}

	return writeAtomic(destPath, []byte(b.String()))
}

func readFragment(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

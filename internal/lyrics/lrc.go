// Package lyrics parses LRC text and looks up timed lyrics for tracks.
package lyrics

import (
	"bufio"
	"fmt"
	"html"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tessro/cadence/internal/core"
)

// Parse parses LRC text into lyric lines ordered by timestamp.
//
// A line may carry several timestamps ("[00:12.00][01:30.50]text"); each
// produces its own lyric line. Metadata tags such as [ar:...] are skipped,
// except [offset:N], which shifts every timestamp by -N milliseconds. Text is
// HTML-unescaped. Lines that fail to parse are ignored.
func Parse(raw string) []core.LyricLine {
	var (
		out    []core.LyricLine
		offset float64
	)

	sc := bufio.NewScanner(strings.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "[") {
			continue
		}

		var stamps []float64
		rest := line
		for strings.HasPrefix(rest, "[") {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				break
			}
			tag := rest[1:end]
			rest = rest[end+1:]

			if ts, err := parseTimestamp(tag); err == nil {
				stamps = append(stamps, ts)
				continue
			}
			if key, val, ok := strings.Cut(tag, ":"); ok && strings.EqualFold(strings.TrimSpace(key), "offset") {
				if ms, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
					offset = ms / 1000
				}
			}
		}

		text := html.UnescapeString(strings.TrimSpace(rest))
		for _, ts := range stamps {
			out = append(out, core.LyricLine{Timestamp: ts, Text: text})
		}
	}

	for i := range out {
		out[i].Timestamp = math.Max(0, out[i].Timestamp-offset)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

// parseTimestamp parses mm:ss, mm:ss.xx, mm:ss.xxx and hh:mm:ss forms.
func parseTimestamp(tag string) (float64, error) {
	parts := strings.Split(tag, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp: %s", tag)
	}

	var total float64
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return 0, fmt.Errorf("invalid timestamp: %s", tag)
		}
		last := i == len(parts)-1
		if !last {
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 {
				return 0, fmt.Errorf("invalid timestamp: %s", tag)
			}
			total = total*60 + float64(n)
			continue
		}
		s, err := strconv.ParseFloat(p, 64)
		if err != nil || s < 0 {
			return 0, fmt.Errorf("invalid timestamp: %s", tag)
		}
		total = total*60 + s
	}
	return total, nil
}

// Format renders lines back into LRC text.
func Format(lines []core.LyricLine) string {
	var sb strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&sb, "[%s] %s\n", FormatTimestamp(l.Timestamp), l.Text)
	}
	return sb.String()
}

// FormatTimestamp formats seconds as mm:ss.xx.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	cs := int(math.Round(seconds * 100))
	return fmt.Sprintf("%02d:%02d.%02d", cs/6000, (cs/100)%60, cs%100)
}

package lyric

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Line is one parsed lyric line with its timestamp in seconds.
type Line struct {
	Time float64
	Text string
}

// lrcLineRe matches a standard LRC timestamp prefix like "[01:23.45] text".
// 只认 mm:ss.xx 两位小数格式，其他格式整行按纯文本处理
var lrcLineRe = regexp.MustCompile(`^\[(\d{2}):(\d{2})\.(\d{2})\]\s*(.*)$`)

// Parse converts raw embedded LRC text into timestamped lines.
// Blank lines are dropped. Lines without a recognizable timestamp are kept
// verbatim at time 0 so no lyric content is ever silently lost. The result
// is sorted by timestamp; lines with equal timestamps keep their original
// relative order.
func Parse(raw string) []Line {
	lines := make([]Line, 0)

	for _, textLine := range strings.Split(raw, "\n") {
		textLine = strings.TrimRight(textLine, "\r")
		if strings.TrimSpace(textLine) == "" {
			continue
		}

		m := lrcLineRe.FindStringSubmatch(textLine)
		if m == nil {
			lines = append(lines, Line{Time: 0, Text: textLine})
			continue
		}

		minutes, _ := strconv.Atoi(m[1])
		seconds, _ := strconv.Atoi(m[2])
		hundredths, _ := strconv.Atoi(m[3])

		lines = append(lines, Line{
			Time: float64(minutes)*60 + float64(seconds) + float64(hundredths)/100,
			Text: m[4],
		})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Time < lines[j].Time
	})

	return lines
}

// Grounded on the teacher's internal/output/functions.go: FormatBytes,
// FormatSpeed, PrintProgressBar, and terminal sizing via golang.org/x/term,
// adapted here to segment/byte progress rather than chunk counters.
package output

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// FormatBytes converts a byte count to a human-readable string.
func FormatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// FormatSpeed formats a throughput in bytes-per-second.
func FormatSpeed(bytes int64, elapsedSeconds float64) string {
	if elapsedSeconds == 0 {
		return "0 B/s"
	}
	bps := float64(bytes) / elapsedSeconds
	formatted := FormatBytes(uint64(bps))
	return formatted[:len(formatted)-1] + "B/s"
}

// ProgressBar renders a fixed-width textual progress bar for (current, total).
func ProgressBar(current, total int64, width int) string {
	if width <= 0 {
		width = 30
	}
	if total <= 0 {
		total = 1
	}
	if current < 0 {
		current = 0
	}
	if current > total {
		current = total
	}
	percent := float64(current) / float64(total)
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	bar := symbols["bullet"]
	bar += strings.Repeat(symbols["hline"], filled)
	if filled < width {
		bar += strings.Repeat(" ", width-filled)
	}
	bar += symbols["bullet"]
	return debugStyle.Render(fmt.Sprintf("%s %.1f%% %s ", bar, percent*100, symbols["bullet"]))
}

func terminalHeight() int {
	_, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || h <= 0 {
		return 24
	}
	return h
}

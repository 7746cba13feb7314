package cli

import (
	"fmt"
	"time"
)

// FormatFileSize renders a byte count with a binary unit: "512 B", "1.50 KB".
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	units := []string{"KB", "MB", "GB", "TB"}
	size := float64(bytes) / unit
	i := 0
	for size >= unit && i < len(units)-1 {
		size /= unit
		i++
	}
	return fmt.Sprintf("%.2f %s", size, units[i])
}

// FormatDuration renders "500ms" below a second, "1.50s" below a minute and
// "1m 5.00s" above.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		minutes := int(d / time.Minute)
		rest := d - time.Duration(minutes)*time.Minute
		return fmt.Sprintf("%dm %.2fs", minutes, rest.Seconds())
	}
}

// formatNumber adds thousands separators.
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}

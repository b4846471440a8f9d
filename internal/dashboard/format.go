package dashboard

import (
	"fmt"
	"strings"
)

// FormatBytes formats a byte count as a human-readable string.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// FormatRate formats a bytes-per-second rate as a human-readable string.
func FormatRate(bytesPerSecond float64) string {
	switch {
	case bytesPerSecond < 1024:
		return fmt.Sprintf("%.0f B/s", bytesPerSecond)
	case bytesPerSecond < 1024*1024:
		return fmt.Sprintf("%.1f KB/s", bytesPerSecond/1024)
	case bytesPerSecond < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB/s", bytesPerSecond/(1024*1024))
	}
	return fmt.Sprintf("%.1f GB/s", bytesPerSecond/(1024*1024*1024))
}

// FormatPrice renders a quote with thousands separators. Sub-unit prices
// keep four decimals.
func FormatPrice(v float64) string {
	if v != 0 && v < 1 && v > -1 {
		return fmt.Sprintf("%.4f", v)
	}

	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

// AssetLabel shortens well-known coin ids to their tickers.
func AssetLabel(id string) string {
	switch id {
	case "bitcoin":
		return "BTC"
	case "ethereum":
		return "ETH"
	case "solana":
		return "SOL"
	case "dogecoin":
		return "DOGE"
	case "monero":
		return "XMR"
	}
	return strings.ToUpper(id)
}

package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a titled block of key/value lines, keys sorted
func PrintHeader(title string, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
	for _, k := range keys {
		fmt.Printf("  %-10s: %s\n", k, fields[k])
	}
	PrintSeparator()
}

// PrintProgress prints a progress step with counter
// Example: [Sweep] SMA 20/100 sharpe=0.84 [3/12]
func PrintProgress(tag string, message string, current int, total int) {
	fmt.Printf("[%s] %s [%d/%d]\n", tag, message, current, total)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	fmt.Println(formatRow(values, widths))
}

func formatRow(values []string, widths []int) string {
	var b strings.Builder
	for i, val := range values {
		fmt.Fprintf(&b, "%-*s", widths[i], val)
		if i < len(values)-1 {
			b.WriteString("  ")
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// FormatMoney renders an amount rounded to cents with thousands separators
// Example: 1234567.891 → "1,234,567.89", -50 → "-50.00"
func FormatMoney(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(2)
	intPart, frac := fixed[:len(fixed)-3], fixed[len(fixed)-3:]
	return sign + groupThousands(intPart) + frac
}

// FormatPct renders a percentage with an explicit sign
func FormatPct(pct float64) string {
	return fmt.Sprintf("%+.2f%%", pct)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func sharpeGrade(sharpe float64) string {
	switch {
	case sharpe > 2.0:
		return "🌟 (Excellent)"
	case sharpe > 1.0:
		return "✅ (Good)"
	case sharpe > 0.5:
		return "⚠️  (Fair)"
	default:
		return "❌ (Poor)"
	}
}

package core

import "strconv"

// FormatAmount renders an integer rupiah amount with thousand separators,
// e.g. 1250000 -> "Rp 1.250.000".
func FormatAmount(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	s := strconv.FormatInt(amount, 10)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, c)
	}

	if neg {
		return "-Rp " + string(out)
	}
	return "Rp " + string(out)
}

package statement

import (
	"strings"

	"github.com/warp/cpap-estimator/costshare"
)

// FormatMoney prints m as dollars with thousands separators, e.g. "$1,224.93".
func FormatMoney(m costshare.Money) string {
	s := m.Round().String()

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	return sign + "$" + withCommas(whole) + "." + frac
}

func withCommas(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

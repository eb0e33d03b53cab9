package score

import "github.com/verte-zerg/sentinel/internal/langmodel"

const (
	spaceWeight = 2.0
	otherWeight = 0.1
)

// Bytes rates a byte string as English text: the share of printable bytes
// plus the mean letter-frequency weight per byte. A letter weighs its model
// probability times 26, so an average English letter weighs well above one.
// Empty input scores 0.
func Bytes(b []byte, m *langmodel.Model) float64 {
	if len(b) == 0 {
		return 0
	}
	printable := 0
	weight := 0.0
	for _, c := range b {
		if l, ok := langmodel.Index(c); ok {
			printable++
			weight += m.LetterFrequency(int(l)) * langmodel.Alphabet
			continue
		}
		switch {
		case c == ' ':
			printable++
			weight += spaceWeight
		case c == '\n' || c == '\r' || c == '\t' || (c > ' ' && c < 0x7f):
			printable++
			weight += otherWeight
		}
	}
	n := float64(len(b))
	return float64(printable)/n + weight/n
}

// ExpectedBytes is the Bytes score of typical English prose, where about one
// symbol in six is a space.
func ExpectedBytes(m *langmodel.Model) float64 {
	const spaceShare = 1.0 / 6
	letter := m.ExpectedIoC() * langmodel.Alphabet
	return 1 + (1-spaceShare)*letter + spaceShare*spaceWeight
}

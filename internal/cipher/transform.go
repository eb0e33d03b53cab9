package cipher

// Shift rotates every ASCII letter forward by shift positions (mod 26),
// keeping case. Other bytes pass through.
func Shift(text string, shift int) string {
	shift = ((shift % 26) + 26) % 26
	out := []byte(text)
	for i, c := range out {
		out[i] = rotate(c, shift)
	}
	return string(out)
}

// Shifts converts an uppercase keyword to per-position shifts.
func Shifts(keyword string) []int {
	shifts := make([]int, 0, len(keyword))
	for i := 0; i < len(keyword); i++ {
		c := keyword[i] | 0x20
		if c >= 'a' && c <= 'z' {
			shifts = append(shifts, int(c-'a'))
		}
	}
	return shifts
}

// Vigenere shifts the i-th letter of text by shifts[i mod len]. Non-letters
// pass through and do not advance the key. With decrypt set the shifts are
// subtracted instead.
func Vigenere(text string, shifts []int, decrypt bool) string {
	if len(shifts) == 0 {
		return text
	}
	out := []byte(text)
	pos := 0
	for i, c := range out {
		if !isLetter(c) {
			continue
		}
		s := shifts[pos%len(shifts)]
		if decrypt {
			s = 26 - s
		}
		out[i] = rotate(c, s%26)
		pos++
	}
	return string(out)
}

// Substitute maps letter i to mapping[i], keeping case.
func Substitute(text string, mapping [26]byte) string {
	out := []byte(text)
	for i, c := range out {
		switch {
		case c >= 'A' && c <= 'Z':
			out[i] = 'A' + mapping[c-'A']
		case c >= 'a' && c <= 'z':
			out[i] = 'a' + mapping[c-'a']
		}
	}
	return string(out)
}

// XOR combines every byte with the repeating key.
func XOR(text string, key []byte) string {
	if len(key) == 0 {
		return text
	}
	out := []byte(text)
	for i := range out {
		out[i] ^= key[i%len(key)]
	}
	return string(out)
}

func rotate(c byte, shift int) byte {
	switch {
	case c >= 'A' && c <= 'Z':
		return 'A' + byte((int(c-'A')+shift)%26)
	case c >= 'a' && c <= 'z':
		return 'a' + byte((int(c-'a')+shift)%26)
	default:
		return c
	}
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

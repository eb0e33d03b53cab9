package langmodel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrFormat is returned for malformed model files.
var ErrFormat = errors.New("langmodel: malformed model file")

const fileHeader = "# sentinel language model v1"

// Save writes the model counts in a line-oriented text format.
func (m *Model) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\nname %s\n", fileHeader, m.name); err != nil {
		return err
	}
	for i, c := range m.counts {
		if c == 0 {
			continue
		}
		if _, err := fmt.Fprintf(bw, "L %c %s\n", 'A'+i, formatCount(c)); err != nil {
			return err
		}
	}
	gram := make([]byte, MaxOrder)
	for n := MinOrder; n <= MaxOrder; n++ {
		for idx, c := range m.raw[n] {
			if c == 0 {
				continue
			}
			decodeGram(gram[:n], idx)
			if _, err := fmt.Fprintf(bw, "N%d %s %s\n", n, gram[:n], formatCount(c)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// SaveFile writes the model to path atomically.
func (m *Model) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*")
	if err != nil {
		return fmt.Errorf("failed to create temp model: %w", err)
	}
	tmpName := tmp.Name()
	if err := m.Save(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close model: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace model: %w", err)
	}
	return nil
}

// Load reads a model written by Save.
func Load(r io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(r)
	name := ""
	var letters [Alphabet]float64
	var grams [MaxOrder + 1][]float64
	for n := MinOrder; n <= MaxOrder; n++ {
		grams[n] = make([]float64, tableSize(n))
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == "name" {
			name = strings.TrimSpace(strings.TrimPrefix(line, "name"))
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d", ErrFormat, lineNo)
		}
		count, err := strconv.ParseFloat(fields[2], 64)
		if err != nil || count < 0 {
			return nil, fmt.Errorf("%w: line %d: bad count %q", ErrFormat, lineNo, fields[2])
		}
		switch {
		case fields[0] == "L":
			if len(fields[1]) != 1 {
				return nil, fmt.Errorf("%w: line %d: bad letter %q", ErrFormat, lineNo, fields[1])
			}
			l, ok := Index(fields[1][0])
			if !ok {
				return nil, fmt.Errorf("%w: line %d: bad letter %q", ErrFormat, lineNo, fields[1])
			}
			letters[l] += count
		case strings.HasPrefix(fields[0], "N"):
			n, err := strconv.Atoi(fields[0][1:])
			if err != nil || !validOrder(n) || len(fields[1]) != n {
				return nil, fmt.Errorf("%w: line %d: bad n-gram %q", ErrFormat, lineNo, fields[1])
			}
			idx, ok := encodeGram(fields[1])
			if !ok {
				return nil, fmt.Errorf("%w: line %d: bad n-gram %q", ErrFormat, lineNo, fields[1])
			}
			grams[n][idx] += count
		default:
			return nil, fmt.Errorf("%w: line %d: unknown record %q", ErrFormat, lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	return fromCounts(name, letters, grams)
}

// LoadFile reads a model from path.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer func() {
		// Best-effort close.
		_ = f.Close()
	}()
	return Load(f)
}

func encodeGram(gram string) (int, bool) {
	idx := 0
	for i := 0; i < len(gram); i++ {
		l, ok := Index(gram[i])
		if !ok {
			return 0, false
		}
		idx = idx*Alphabet + int(l)
	}
	return idx, true
}

func decodeGram(dst []byte, idx int) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = 'A' + byte(idx%Alphabet)
		idx /= Alphabet
	}
}

func formatCount(c float64) string {
	return strconv.FormatFloat(c, 'g', -1, 64)
}

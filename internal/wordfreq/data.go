package wordfreq

import (
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/verte-zerg/sentinel/internal/corpus"
)

const dataPrefix = "wordfreq/data/"

// ErrNoData is returned when the wheel lacks the requested list.
var ErrNoData = errors.New("wordfreq list not found")

// List names one frequency list in the wheel, e.g. large/en.
type List struct {
	Type string
	Lang string
}

func (l List) fileName() string {
	return dataPrefix + l.Type + "_" + l.Lang + ".msgpack.gz"
}

// Lists returns every frequency list in the wheel, sorted by language then type.
func Lists(wheelPath string) ([]List, error) {
	reader, err := zip.OpenReader(wheelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open wheel: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	var lists []List
	for _, file := range reader.File {
		if l, ok := parseListName(file.Name); ok {
			lists = append(lists, l)
		}
	}
	if len(lists) == 0 {
		return nil, ErrNoData
	}
	sort.Slice(lists, func(i, j int) bool {
		if lists[i].Lang != lists[j].Lang {
			return lists[i].Lang < lists[j].Lang
		}
		return lists[i].Type < lists[j].Type
	})
	return lists, nil
}

func parseListName(name string) (List, bool) {
	if !strings.HasPrefix(name, dataPrefix) || path.Dir(name)+"/" != dataPrefix {
		return List{}, false
	}
	base := strings.TrimSuffix(path.Base(name), ".msgpack.gz")
	if base == path.Base(name) {
		return List{}, false
	}
	listType, lang, ok := strings.Cut(base, "_")
	if !ok || listType == "" || lang == "" {
		return List{}, false
	}
	return List{Type: listType, Lang: lang}, true
}

// Entries returns up to limit words of the list, most frequent first, with
// their frequency as weight. Words rejected by the language filter are
// skipped; limit <= 0 keeps every word.
func Entries(wheelPath string, list List, limit int) ([]corpus.Entry, error) {
	reader, err := zip.OpenReader(wheelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open wheel: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	var data *zip.File
	for _, file := range reader.File {
		if file.Name == list.fileName() {
			data = file
			break
		}
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoData, list.Type, list.Lang)
	}
	rc, err := data.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer func() {
		_ = rc.Close()
	}()
	gz, err := gzip.NewReader(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip data: %w", err)
	}
	defer func() {
		_ = gz.Close()
	}()

	return readBins(gz, corpus.FilterForLang(list.Lang), limit)
}

// readBins decodes the centibel-packed layout: a header map followed by
// one array of words per bin, where bin i holds words of frequency 10^(-i/100).
func readBins(r io.Reader, keep corpus.FilterFunc, limit int) ([]corpus.Entry, error) {
	value, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode frequency data: %w", err)
	}
	top, ok := value.([]any)
	if !ok || len(top) == 0 {
		return nil, errors.New("frequency data is not a list")
	}
	if header, ok := top[0].(map[string]any); !ok || header["format"] != "cB" {
		return nil, errors.New("frequency data has an unknown format")
	}

	var entries []corpus.Entry
	seen := make(map[string]struct{})
	for i, bin := range top[1:] {
		words, ok := bin.([]any)
		if !ok {
			return nil, fmt.Errorf("bin %d is not a list", i)
		}
		weight := math.Pow(10, -float64(i)/100)
		for _, w := range words {
			word, ok := w.(string)
			if !ok || !keep(word) {
				continue
			}
			word = strings.ToLower(word)
			if _, dup := seen[word]; dup {
				continue
			}
			seen[word] = struct{}{}
			entries = append(entries, corpus.Entry{Word: word, Weight: weight})
			if limit > 0 && len(entries) >= limit {
				return entries, nil
			}
		}
	}
	if len(entries) == 0 {
		return nil, corpus.ErrEmpty
	}
	return entries, nil
}

// WriteAttribution records the dataset license next to a model built from it.
func WriteAttribution(wheelPath, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	text := strings.Join([]string{
		"Language model statistics derived from the wordfreq dataset.",
		"Source: https://github.com/rspeer/wordfreq",
		"Data license: Creative Commons Attribution-ShareAlike 4.0 International (CC BY-SA 4.0).",
		"Changes were made: words were filtered by alphabet and reduced to letter n-gram counts.",
		"",
	}, "\n")
	if err := os.WriteFile(filepath.Join(outDir, "ATTRIBUTION.txt"), []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write attribution: %w", err)
	}

	license, err := readLicense(wheelPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "LICENSE.txt"), license, 0o644); err != nil {
		return fmt.Errorf("failed to write license: %w", err)
	}
	return nil
}

func readLicense(wheelPath string) ([]byte, error) {
	reader, err := zip.OpenReader(wheelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open wheel for license: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	for _, file := range reader.File {
		if !strings.Contains(strings.ToLower(file.Name), "license") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open license: %w", err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read license: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("license file not found in wheel")
}

package main

import (
	"bufio"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/verte-zerg/sentinel/internal/model"
)

const (
	encodingText   = "text"
	encodingHex    = "hex"
	encodingBase64 = "base64"
)

// readInput returns the text given as arguments, read from path, or read
// from stdin when neither is given or path is "-".
func readInput(stdin io.Reader, path string, args []string) (string, error) {
	if len(args) > 0 {
		if path != "" {
			return "", fmt.Errorf("pass either --in or text arguments, not both")
		}
		return strings.Join(args, " "), nil
	}
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

// readLines splits batch input into non-empty lines.
func readLines(text string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r"); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// resolveEncoding defaults to hex for XOR, whose output is binary, and to
// plain text otherwise.
func resolveEncoding(encoding string, family model.Family) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "":
		if family == model.FamilyXOR {
			return encodingHex, nil
		}
		return encodingText, nil
	case encodingText:
		return encodingText, nil
	case encodingHex:
		return encodingHex, nil
	case encodingBase64, "b64":
		return encodingBase64, nil
	default:
		return "", fmt.Errorf("--encoding must be text, hex, or base64")
	}
}

func decodeInput(text, encoding string) (string, error) {
	switch encoding {
	case encodingHex:
		b, err := hex.DecodeString(strings.Join(strings.Fields(text), ""))
		if err != nil {
			return "", fmt.Errorf("invalid hex input: %w", err)
		}
		return string(b), nil
	case encodingBase64:
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(text), ""))
		if err != nil {
			return "", fmt.Errorf("invalid base64 input: %w", err)
		}
		return string(b), nil
	default:
		return strings.TrimRight(text, "\r\n"), nil
	}
}

func encodeOutput(text, encoding string) string {
	switch encoding {
	case encodingHex:
		return hex.EncodeToString([]byte(text))
	case encodingBase64:
		return base64.StdEncoding.EncodeToString([]byte(text))
	default:
		return text
	}
}

func parseFamilyFlag(raw string) (model.Family, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("--family is required (caesar, vigenere, substitution, xor)")
	}
	family, ok := model.ParseFamily(raw)
	if !ok {
		return "", fmt.Errorf("unknown family %q (caesar, vigenere, substitution, xor)", raw)
	}
	return family, nil
}

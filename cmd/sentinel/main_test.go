package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/sentinel/internal/cipher"
	"github.com/verte-zerg/sentinel/internal/config"
	"github.com/verte-zerg/sentinel/internal/model"
	"github.com/verte-zerg/sentinel/internal/report"
)

const passage = `The fishermen of the northern coast have a saying that the sea gives nothing
away for free. They mean that every catch has to be earned with patience, with early
mornings and cold hands, and with a good deal of knowledge about the habits of the fish
and the moods of the weather. A young man who goes out for the first time usually comes
back with little to show for his trouble, and the older men smile at him and tell him to
try again tomorrow.`

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestResolveEncoding(t *testing.T) {
	cases := []struct {
		encoding string
		family   model.Family
		want     string
	}{
		{"", model.FamilyXOR, encodingHex},
		{"", model.FamilyVigenere, encodingText},
		{"b64", model.FamilyShift, encodingBase64},
		{" HEX ", model.FamilySubstitution, encodingHex},
	}
	for _, tc := range cases {
		got, err := resolveEncoding(tc.encoding, tc.family)
		if err != nil || got != tc.want {
			t.Fatalf("resolveEncoding(%q, %s) = %q, %v", tc.encoding, tc.family, got, err)
		}
	}
	if _, err := resolveEncoding("rot13", model.FamilyShift); err == nil {
		t.Fatalf("expected error for unknown encoding")
	}
}

func TestEncodings(t *testing.T) {
	raw := "\x00\xffsecret"
	for _, enc := range []string{encodingHex, encodingBase64} {
		got, err := decodeInput(encodeOutput(raw, enc)+"\n", enc)
		if err != nil || got != raw {
			t.Fatalf("%s round trip = %q, %v", enc, got, err)
		}
	}
	if got, _ := decodeInput("4b 45\n59", encodingHex); got != "KEY" {
		t.Fatalf("hex with whitespace = %q", got)
	}
	if _, err := decodeInput("zz", encodingHex); err == nil {
		t.Fatalf("expected hex error")
	}
	if got, _ := decodeInput("hello\r\n", encodingText); got != "hello" {
		t.Fatalf("text = %q", got)
	}
}

func TestReadInput(t *testing.T) {
	got, err := readInput(strings.NewReader("ignored"), "", []string{"ab", "cd"})
	if err != nil || got != "ab cd" {
		t.Fatalf("args = %q, %v", got, err)
	}
	got, err = readInput(strings.NewReader("from stdin"), "-", nil)
	if err != nil || got != "from stdin" {
		t.Fatalf("stdin = %q, %v", got, err)
	}
	path := filepath.Join(t.TempDir(), "ct.txt")
	if err := os.WriteFile(path, []byte("from file"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err = readInput(strings.NewReader(""), path, nil)
	if err != nil || got != "from file" {
		t.Fatalf("file = %q, %v", got, err)
	}
	if _, err := readInput(strings.NewReader(""), path, []string{"x"}); err == nil {
		t.Fatalf("expected error for --in with arguments")
	}
	if _, err := readInput(strings.NewReader(""), filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestReadLines(t *testing.T) {
	lines := readLines("one\r\n\n  \ntwo\n")
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("lines = %q", lines)
	}
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("commented template: %v", err)
	}
	if cfg.Crack.Restarts != nil {
		t.Fatalf("commented keys should stay unset")
	}

	var b strings.Builder
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		b.WriteString(line + "\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err = config.LoadConfig(path)
	if err != nil {
		t.Fatalf("uncommented template: %v", err)
	}
	def := model.DefaultConfig()
	if cfg.Crack.Restarts == nil || *cfg.Crack.Restarts != def.Restarts {
		t.Fatalf("restarts = %v", cfg.Crack.Restarts)
	}
	if cfg.Crack.Model == nil || *cfg.Crack.Model != builtinModel {
		t.Fatalf("model = %v", cfg.Crack.Model)
	}
	if cfg.History.CurveWindow == nil || *cfg.History.CurveWindow != defaultCurveWindow {
		t.Fatalf("curve window = %v", cfg.History.CurveWindow)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	setupEnv(t)
	cases := []struct {
		family string
		key    string
	}{
		{"caesar", "3"},
		{"vigenere", "LEMON"},
		{"substitution", "QWERTYUIOPASDFGHJKLZXCVBNM"},
		{"xor", "4b4559"},
	}
	for _, tc := range cases {
		ct, _, err := execute(t, "", "encrypt", "-f", tc.family, "-k", tc.key, "Attack at dawn!")
		if err != nil {
			t.Fatalf("%s encrypt: %v", tc.family, err)
		}
		ct = strings.TrimSpace(ct)
		if ct == "Attack at dawn!" {
			t.Fatalf("%s: ciphertext equals plaintext", tc.family)
		}
		pt, _, err := execute(t, ct+"\n", "decrypt", "-f", tc.family, "-k", tc.key)
		if err != nil {
			t.Fatalf("%s decrypt: %v", tc.family, err)
		}
		if strings.TrimSpace(pt) != "Attack at dawn!" {
			t.Fatalf("%s round trip = %q", tc.family, pt)
		}
	}
	if _, _, err := execute(t, "", "encrypt", "-f", "caesar", "-k", "x", "abc"); err == nil {
		t.Fatalf("expected invalid key error")
	}
	if _, _, err := execute(t, "", "encrypt", "-k", "3", "abc"); err == nil {
		t.Fatalf("expected missing family error")
	}
}

func TestKeygenAndSample(t *testing.T) {
	setupEnv(t)
	out, _, err := execute(t, "", "keygen", "-f", "substitution", "--seed", "3")
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	key := strings.TrimSpace(out)
	if _, err := cipher.ParseKey(model.FamilySubstitution, key); err != nil {
		t.Fatalf("generated key %q invalid: %v", key, err)
	}
	if _, _, err := execute(t, "", "keygen", "-f", "xor", "-n", "0", "--seed", "3"); err == nil {
		t.Fatalf("expected error for zero length")
	}

	first, _, err := execute(t, "", "sample", "--words", "12", "--seed", "7")
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	second, _, _ := execute(t, "", "sample", "--words", "12", "--seed", "7")
	if first != second || len(strings.Fields(first)) != 12 {
		t.Fatalf("sample not deterministic: %q vs %q", first, second)
	}

	ct, stderr, err := execute(t, "", "sample", "--words", "12", "--seed", "7", "-f", "vigenere", "-n", "4")
	if err != nil {
		t.Fatalf("sample encrypt: %v", err)
	}
	keyword := strings.TrimSpace(strings.TrimPrefix(stderr, "key: "))
	if len(keyword) != 4 {
		t.Fatalf("stderr = %q", stderr)
	}
	pt, _, err := execute(t, ct, "decrypt", "-f", "vigenere", "-k", keyword)
	if err != nil || pt != first {
		t.Fatalf("decrypted sample = %q, %v; want %q", pt, err, first)
	}
}

func TestCrackSavesHistory(t *testing.T) {
	setupEnv(t)
	ct := cipher.Shift("THE QUICK BROWN FOX JUMPS OVER THE LAZY DOG", 3)
	out, _, err := execute(t, "", "crack", "-f", "caesar", "--format", "json", ct)
	if err != nil {
		t.Fatalf("crack: %v", err)
	}
	var exp report.Export
	if err := json.Unmarshal([]byte(out), &exp); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if exp.Key != "3" || exp.Plaintext != "THE QUICK BROWN FOX JUMPS OVER THE LAZY DOG" {
		t.Fatalf("export = %+v", exp)
	}
	if exp.RunID == "" || exp.Method != string(model.MethodChiSquared) {
		t.Fatalf("run id %q method %q", exp.RunID, exp.Method)
	}

	out, _, err = execute(t, "", "history", "--plain")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "Runs: 1") || !strings.Contains(out, string(model.MethodChiSquared)) {
		t.Fatalf("history output:\n%s", out)
	}

	out, _, err = execute(t, "", "history", "show", exp.RunID)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	if !strings.Contains(out, "Key:        3") || !strings.Contains(out, "Candidates") {
		t.Fatalf("history show output:\n%s", out)
	}
	if _, _, err := execute(t, "", "history", "show", "missing"); err == nil {
		t.Fatalf("expected error for unknown run")
	}
}

func TestCrackNoSaveAndBatch(t *testing.T) {
	dir := setupEnv(t)
	lines := []string{
		cipher.Shift("THE QUICK BROWN FOX JUMPS OVER THE LAZY DOG", 5),
		cipher.Shift("MEET ME NEAR THE OLD STONE BRIDGE AT SEVEN THIS EVENING", 11),
	}
	out, _, err := execute(t, strings.Join(lines, "\n"), "crack", "-f", "caesar", "--batch", "--no-save", "--format", "json")
	if err != nil {
		t.Fatalf("crack batch: %v", err)
	}
	var exps []report.Export
	if err := json.Unmarshal([]byte(out), &exps); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(exps) != 2 || exps[0].Key != "5" || exps[1].Key != "11" {
		t.Fatalf("batch = %+v", exps)
	}
	if exps[0].RunID != "" {
		t.Fatalf("--no-save should not record runs")
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "sentinel", "history.db")); !os.IsNotExist(err) {
		t.Fatalf("history db created with --no-save: %v", err)
	}

	text, _, err := execute(t, "", "crack", "-f", "caesar", "--no-save", "-v", lines[0])
	if err != nil {
		t.Fatalf("crack text: %v", err)
	}
	if !strings.Contains(text, "Plaintext") || !strings.Contains(text, "Candidates") {
		t.Fatalf("text output:\n%s", text)
	}
}

func TestCrackRejectsBadSettings(t *testing.T) {
	setupEnv(t)
	cases := [][]string{
		{"crack", "-f", "caesar", "--ngram", "7", "abc"},
		{"crack", "-f", "caesar", "--format", "xml", "abc"},
		{"crack", "-f", "enigma", "abc"},
		{"crack", "-f", "caesar", "--live", "abc"},
		{"crack", "-f", "xor", "zz"},
	}
	for _, args := range cases {
		if _, _, err := execute(t, "", args...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestCrackUsesConfigFile(t *testing.T) {
	dir := setupEnv(t)
	cfgDir := filepath.Join(dir, "config", "sentinel")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "[crack]\ntop = 2\n\n[history]\nsave = false\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ct := cipher.Shift("THE QUICK BROWN FOX JUMPS OVER THE LAZY DOG", 7)
	out, _, err := execute(t, "", "crack", "-f", "caesar", "--format", "json", ct)
	if err != nil {
		t.Fatalf("crack: %v", err)
	}
	var exp report.Export
	if err := json.Unmarshal([]byte(out), &exp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if exp.Diagnostics == nil || len(exp.Diagnostics.Candidates) != 2 {
		t.Fatalf("top from config not applied: %+v", exp.Diagnostics)
	}
	if exp.RunID != "" {
		t.Fatalf("save = false from config not applied")
	}

	out, _, err = execute(t, "", "crack", "-f", "caesar", "--format", "json", "--top", "4", ct)
	if err != nil {
		t.Fatalf("crack: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &exp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(exp.Diagnostics.Candidates) != 4 {
		t.Fatalf("flag should override config, got %d", len(exp.Diagnostics.Candidates))
	}
}

func TestAnalyzeVigenere(t *testing.T) {
	setupEnv(t)
	ct := cipher.Vigenere(passage, cipher.Shifts("LEMON"), false)
	out, _, err := execute(t, ct, "analyze", "-f", "vigenere", "--format", "json")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var a report.Analysis
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Period != 5 || len(a.Sweep) == 0 {
		t.Fatalf("period = %d, sweep %d", a.Period, len(a.Sweep))
	}
	if a.IoC >= a.ExpectedIoC {
		t.Fatalf("ciphertext IoC %.4f should be below language %.4f", a.IoC, a.ExpectedIoC)
	}

	text, _, err := execute(t, ct, "analyze")
	if err != nil {
		t.Fatalf("analyze text: %v", err)
	}
	if !strings.Contains(text, "Estimated period") || !strings.Contains(text, "Friedman sweep") {
		t.Fatalf("text output:\n%s", text)
	}
}

func TestModelBuildAndShow(t *testing.T) {
	dir := setupEnv(t)
	corpusPath := filepath.Join(dir, "tiny.txt")
	if err := os.WriteFile(corpusPath, []byte(passage), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, _, err := execute(t, "", "model", "build", "--name", "tiny", corpusPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(out, config.DefaultModelPath("tiny")) {
		t.Fatalf("build output = %q", out)
	}
	out, _, err = execute(t, "", "model", "show", "tiny")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Model: tiny") || !strings.Contains(out, "Top trigrams") || !strings.Contains(out, "THE") {
		t.Fatalf("show output:\n%s", out)
	}

	ct := cipher.Shift(passage, 9)
	out, _, err = execute(t, ct, "crack", "-f", "caesar", "--model", "tiny", "--no-save", "--format", "json")
	if err != nil {
		t.Fatalf("crack with saved model: %v", err)
	}
	if !strings.Contains(out, `"key": "9"`) {
		t.Fatalf("crack output = %s", out)
	}
	if _, _, err := execute(t, "", "model", "show", "nope"); err == nil {
		t.Fatalf("expected error for unknown model")
	}
	if _, _, err := execute(t, "", "model", "build", "--name", "empty"); err == nil {
		t.Fatalf("expected error without corpus")
	}
}

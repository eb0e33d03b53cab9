package cipher

import (
	"encoding/hex"
	"errors"
	"math/rand"
	"testing"

	"github.com/verte-zerg/sentinel/internal/model"
)

func mustKey(t *testing.T, family model.Family, s string) model.Key {
	t.Helper()
	key, err := ParseKey(family, s)
	if err != nil {
		t.Fatalf("ParseKey(%s, %q): %v", family, s, err)
	}
	return key
}

func TestKnownVectors(t *testing.T) {
	tests := []struct {
		family model.Family
		key    string
		plain  string
		want   string
	}{
		{model.FamilyShift, "3", "HELLO", "KHOOR"},
		{model.FamilyShift, "5", "Hello World", "Mjqqt Btwqi"},
		{model.FamilyShift, "3", "XYZ", "ABC"},
		{model.FamilyVigenere, "LEMON", "ATTACKATDAWN", "LXFOPVEFRNHR"},
		{model.FamilyVigenere, "ab", "AAAA", "ABAB"},
		{model.FamilyVigenere, "LEMON", "attack at dawn!", "lxfopv ef rnhr!"},
		{model.FamilySubstitution, "QWERTYUIOPASDFGHJKLZXCVBNM", "HELLO WORLD", "ITSSG VGKSR"},
	}
	for _, tt := range tests {
		key := mustKey(t, tt.family, tt.key)
		got, err := Encrypt(key, tt.plain)
		if err != nil {
			t.Fatalf("encrypt %s: %v", tt.family, err)
		}
		if got != tt.want {
			t.Fatalf("%s %q: got %q, want %q", tt.family, tt.plain, got, tt.want)
		}
		back, err := Decrypt(key, got)
		if err != nil {
			t.Fatalf("decrypt %s: %v", tt.family, err)
		}
		if back != tt.plain {
			t.Fatalf("%s round trip: got %q, want %q", tt.family, back, tt.plain)
		}
	}
}

func TestXORVector(t *testing.T) {
	got, err := Encrypt(model.ByteKey{42}, "HELLO")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if hex.EncodeToString([]byte(got)) != "62575c5c5d" {
		t.Fatalf("xor = %x", got)
	}
}

func TestRoundTripAllFamilies(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	for trial := 0; trial < 50; trial++ {
		plain := make([]byte, 1+rnd.Intn(80))
		for i := range plain {
			plain[i] = letters[rnd.Intn(len(letters))]
		}
		var perm model.PermutationKey
		for i, v := range rnd.Perm(26) {
			perm[i] = byte(v)
		}
		keyword := make([]byte, 1+rnd.Intn(8))
		for i := range keyword {
			keyword[i] = byte('A' + rnd.Intn(26))
		}
		xorKey := make([]byte, 1+rnd.Intn(6))
		rnd.Read(xorKey)

		keys := []model.Key{
			model.ShiftKey(rnd.Intn(26)),
			model.KeywordKey(keyword),
			perm,
			model.ByteKey(xorKey),
		}
		for _, key := range keys {
			ct, err := Encrypt(key, string(plain))
			if err != nil {
				t.Fatalf("encrypt %s: %v", key.Family(), err)
			}
			pt, err := Decrypt(key, ct)
			if err != nil {
				t.Fatalf("decrypt %s: %v", key.Family(), err)
			}
			if pt != string(plain) {
				t.Fatalf("%s key %s: round trip %q != %q", key.Family(), key, pt, plain)
			}
		}
	}
}

func TestInvalidKeys(t *testing.T) {
	var dup model.PermutationKey
	keys := []model.Key{
		model.ShiftKey(-1),
		model.ShiftKey(26),
		model.KeywordKey(""),
		model.KeywordKey("AB1"),
		dup,
		model.ByteKey{},
		nil,
	}
	for _, key := range keys {
		if _, err := Encrypt(key, "HELLO"); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %#v: err = %v, want ErrInvalidKey", key, err)
		}
	}

	var keyErr *KeyError
	_, err := Decrypt(model.ShiftKey(-3), "X")
	if !errors.As(err, &keyErr) || keyErr.Family != model.FamilyShift {
		t.Fatalf("expected shift KeyError, got %v", err)
	}
}

func TestParseKeyRejects(t *testing.T) {
	tests := []struct {
		family model.Family
		key    string
	}{
		{model.FamilyShift, "three"},
		{model.FamilyShift, "-2"},
		{model.FamilyVigenere, "le mon"},
		{model.FamilySubstitution, "ABC"},
		{model.FamilySubstitution, "AACDEFGHIJKLMNOPQRSTUVWXYZ"},
		{model.FamilySubstitution, "A1CDEFGHIJKLMNOPQRSTUVWXYZ"},
		{model.FamilyXOR, "zz"},
		{model.FamilyXOR, ""},
	}
	for _, tt := range tests {
		if _, err := ParseKey(tt.family, tt.key); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("ParseKey(%s, %q) err = %v, want ErrInvalidKey", tt.family, tt.key, err)
		}
	}
	if _, err := ParseKey("rot13", "1"); err == nil || errors.Is(err, ErrInvalidKey) {
		t.Fatalf("unknown family should be a plain error, got %v", err)
	}
}

func TestParseKeyForms(t *testing.T) {
	if key := mustKey(t, model.FamilyXOR, "0x2A"); key.String() != "2a" {
		t.Fatalf("xor key = %s", key)
	}
	if key := mustKey(t, model.FamilyVigenere, " lemon "); key.String() != "LEMON" {
		t.Fatalf("keyword = %s", key)
	}
	alphabet := "qwertyuiopasdfghjklzxcvbnm"
	if key := mustKey(t, model.FamilySubstitution, alphabet); key.String() != "QWERTYUIOPASDFGHJKLZXCVBNM" {
		t.Fatalf("permutation = %s", key)
	}
}

// Package cipher implements the forward transforms of the supported ciphers.
package cipher

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/sentinel/internal/model"
)

// ErrInvalidKey is returned when a key lies outside its cipher's domain.
var ErrInvalidKey = errors.New("invalid key")

// KeyError describes a rejected key.
type KeyError struct {
	Family model.Family
	Key    string
	Reason string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("invalid %s key %q: %s", e.Family, e.Key, e.Reason)
}

func (e *KeyError) Unwrap() error { return ErrInvalidKey }

// Validate checks that key lies within its cipher's domain.
func Validate(key model.Key) error {
	switch k := key.(type) {
	case model.ShiftKey:
		if k < 0 || k > 25 {
			return &KeyError{Family: model.FamilyShift, Key: k.String(), Reason: "shift must be in 0..25"}
		}
	case model.KeywordKey:
		if k == "" {
			return &KeyError{Family: model.FamilyVigenere, Key: "", Reason: "keyword is empty"}
		}
		for i := 0; i < len(k); i++ {
			if k[i] < 'A' || k[i] > 'Z' {
				return &KeyError{Family: model.FamilyVigenere, Key: string(k), Reason: "keyword must be uppercase letters"}
			}
		}
	case model.PermutationKey:
		var seen [26]bool
		for _, v := range k {
			if v > 25 || seen[v] {
				return &KeyError{Family: model.FamilySubstitution, Key: permutationString(k), Reason: "not a permutation of the alphabet"}
			}
			seen[v] = true
		}
	case model.ByteKey:
		if len(k) == 0 {
			return &KeyError{Family: model.FamilyXOR, Key: "", Reason: "key is empty"}
		}
	case nil:
		return fmt.Errorf("%w: missing key", ErrInvalidKey)
	default:
		return fmt.Errorf("%w: unsupported key type %T", ErrInvalidKey, key)
	}
	return nil
}

// ParseKey reads a key in its textual form: a decimal shift, a keyword, a
// 26-letter cipher alphabet, or a hex byte string.
func ParseKey(family model.Family, s string) (model.Key, error) {
	s = strings.TrimSpace(s)
	var key model.Key
	switch family {
	case model.FamilyShift:
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, &KeyError{Family: family, Key: s, Reason: "shift must be an integer"}
		}
		key = model.ShiftKey(n)
	case model.FamilyVigenere:
		key = model.KeywordKey(strings.ToUpper(s))
	case model.FamilySubstitution:
		if len(s) != 26 {
			return nil, &KeyError{Family: family, Key: s, Reason: "cipher alphabet must have 26 letters"}
		}
		var p model.PermutationKey
		for i := 0; i < 26; i++ {
			c := s[i] | 0x20
			if c < 'a' || c > 'z' {
				return nil, &KeyError{Family: family, Key: s, Reason: "cipher alphabet must be letters"}
			}
			p[i] = c - 'a'
		}
		key = p
	case model.FamilyXOR:
		b, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(s), "0x"))
		if err != nil {
			return nil, &KeyError{Family: family, Key: s, Reason: "key must be hex"}
		}
		key = model.ByteKey(b)
	default:
		return nil, fmt.Errorf("unknown cipher family %q", family)
	}
	if err := Validate(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt applies key to plaintext.
func Encrypt(key model.Key, plaintext string) (string, error) {
	if err := Validate(key); err != nil {
		return "", err
	}
	switch k := key.(type) {
	case model.ShiftKey:
		return Shift(plaintext, int(k)), nil
	case model.KeywordKey:
		return Vigenere(plaintext, Shifts(string(k)), false), nil
	case model.PermutationKey:
		return Substitute(plaintext, k), nil
	default:
		return XOR(plaintext, key.(model.ByteKey)), nil
	}
}

// Decrypt reverses Encrypt.
func Decrypt(key model.Key, ciphertext string) (string, error) {
	if err := Validate(key); err != nil {
		return "", err
	}
	switch k := key.(type) {
	case model.ShiftKey:
		return Shift(ciphertext, 26-int(k)), nil
	case model.KeywordKey:
		return Vigenere(ciphertext, Shifts(string(k)), true), nil
	case model.PermutationKey:
		return Substitute(ciphertext, k.Inverse()), nil
	default:
		return XOR(ciphertext, key.(model.ByteKey)), nil
	}
}

func permutationString(k model.PermutationKey) string {
	var b strings.Builder
	for _, v := range k {
		if v > 25 {
			b.WriteByte('?')
			continue
		}
		b.WriteByte('A' + v)
	}
	return b.String()
}

// Package password implements the account password policy, strength scoring and hashing.
package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is the shortest accepted password.
const MinLength = 8

// Specials is the set of characters that satisfies the special-character rule.
const Specials = "@$!%*?&"

// Cost is the bcrypt work factor used by Hash.
var Cost = bcrypt.DefaultCost

var commonPasswords = map[string]struct{}{
	"password":    {},
	"password123": {},
	"12345678":    {},
	"qwerty":      {},
	"abc123":      {},
	"admin":       {},
	"admin123":    {},
	"letmein":     {},
	"welcome":     {},
	"monkey":      {},
	"1234567890":  {},
	"password1":   {},
	"qwerty123":   {},
	"admin1234":   {},
}

const (
	msgLength     = "รหัสผ่านต้องมีอย่างน้อย 8 ตัวอักษร"
	msgUpper      = "รหัสผ่านต้องมีตัวพิมพ์ใหญ่อย่างน้อย 1 ตัว (A-Z)"
	msgLower      = "รหัสผ่านต้องมีตัวพิมพ์เล็กอย่างน้อย 1 ตัว (a-z)"
	msgDigit      = "รหัสผ่านต้องมีตัวเลขอย่างน้อย 1 ตัว (0-9)"
	msgSpecial    = "รหัสผ่านต้องมีอักขระพิเศษอย่างน้อย 1 ตัว (@$!%*?&)"
	msgCommon     = "รหัสผ่านนี้ถูกใช้บ่อยเกินไป กรุณาเลือกรหัสผ่านที่ปลอดภัยกว่า"
	msgSeqLetters = "รหัสผ่านไม่ควรมีตัวอักษรที่ต่อเนื่องกัน (เช่น abc, xyz)"
	msgSeqDigits  = "รหัสผ่านไม่ควรมีตัวเลขที่ต่อเนื่องกัน (เช่น 123, 456)"
	msgRepeats    = "รหัสผ่านไม่ควรมีตัวอักษรซ้ำกันติดต่อกันมากกว่า 2 ตัว"
)

// Requirements lists the rules for display next to a password field.
func Requirements() []string {
	return []string{
		"อย่างน้อย 8 ตัวอักษร",
		"มีตัวพิมพ์ใหญ่อย่างน้อย 1 ตัว (A-Z)",
		"มีตัวพิมพ์เล็กอย่างน้อย 1 ตัว (a-z)",
		"มีตัวเลขอย่างน้อย 1 ตัว (0-9)",
		"มีอักขระพิเศษอย่างน้อย 1 ตัว (@$!%*?&)",
	}
}

type Strength string

const (
	StrengthWeak       Strength = "weak"
	StrengthMedium     Strength = "medium"
	StrengthStrong     Strength = "strong"
	StrengthVeryStrong Strength = "very-strong"
)

// Result is the outcome of Validate.
type Result struct {
	Valid    bool
	Errors   []string
	Strength Strength
	Score    int
}

type classes struct {
	upper, lower, digit, special bool
}

func classify(pw string) classes {
	var c classes
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			c.upper = true
		case r >= 'a' && r <= 'z':
			c.lower = true
		case r >= '0' && r <= '9':
			c.digit = true
		case strings.ContainsRune(Specials, r):
			c.special = true
		}
	}
	return c
}

// Validate checks pw against the policy and scores it. Every finding makes the password invalid.
func Validate(pw string) Result {
	var errs []string
	fail := func(msg string) { errs = append(errs, msg) }

	c := classify(pw)
	if len([]rune(pw)) < MinLength {
		fail(msgLength)
	}
	if !c.upper {
		fail(msgUpper)
	}
	if !c.lower {
		fail(msgLower)
	}
	if !c.digit {
		fail(msgDigit)
	}
	if !c.special {
		fail(msgSpecial)
	}
	if isCommon(pw) {
		fail(msgCommon)
	}
	if hasSequentialLetters(pw) {
		fail(msgSeqLetters)
	}
	if hasSequentialDigits(pw) {
		fail(msgSeqDigits)
	}
	if hasRepeats(pw) {
		fail(msgRepeats)
	}

	score := Score(pw)
	return Result{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Strength: StrengthFor(score),
		Score:    score,
	}
}

// Score rates pw from 0 to 100.
func Score(pw string) int {
	n := len([]rune(pw))
	score := 0
	if n >= MinLength {
		score += 20
	}
	if n >= 12 {
		score += 10
	}
	if n >= 16 {
		score += 10
	}

	c := classify(pw)
	for _, ok := range []bool{c.upper, c.lower, c.digit, c.special} {
		if ok {
			score += 20
		}
	}

	if isCommon(pw) {
		score = min(score, 30)
	}
	if hasSequentialLetters(pw) {
		score -= 10
	}
	if hasSequentialDigits(pw) {
		score -= 10
	}
	if hasRepeats(pw) {
		score -= 10
	}
	return max(0, min(100, score))
}

func StrengthFor(score int) Strength {
	switch {
	case score < 40:
		return StrengthWeak
	case score < 60:
		return StrengthMedium
	case score < 80:
		return StrengthStrong
	default:
		return StrengthVeryStrong
	}
}

func isCommon(pw string) bool {
	_, ok := commonPasswords[strings.ToLower(pw)]
	return ok
}

func hasSequentialLetters(pw string) bool {
	rs := []rune(strings.ToLower(pw))
	for i := 0; i+2 < len(rs); i++ {
		if rs[i] >= 'a' && rs[i] <= 'x' && rs[i+1] == rs[i]+1 && rs[i+2] == rs[i]+2 {
			return true
		}
	}
	return false
}

func hasSequentialDigits(pw string) bool {
	const run = "01234567890"
	rs := []rune(pw)
	for i := 0; i+2 < len(rs); i++ {
		if unicode.IsDigit(rs[i]) && strings.Contains(run, string(rs[i:i+3])) {
			return true
		}
	}
	return false
}

func hasRepeats(pw string) bool {
	rs := []rune(pw)
	for i := 0; i+2 < len(rs); i++ {
		if rs[i] == rs[i+1] && rs[i] == rs[i+2] {
			return true
		}
	}
	return false
}

// Hash returns the bcrypt hash of pw.
func Hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Compare reports whether pw matches hash. A malformed hash never matches.
func Compare(hash, pw string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
	return err == nil
}

var errGenerate = errors.New("could not generate a compliant password")

const (
	upperSet = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerSet = "abcdefghijkmnpqrstuvwxyz"
	digitSet = "23456789"
	alphabet = upperSet + lowerSet + digitSet + Specials
)

// GenerateTemporary returns a random password that passes Validate.
func GenerateTemporary() (string, error) {
	const length = 14
	for attempt := 0; attempt < 32; attempt++ {
		buf := make([]byte, 0, length)
		for _, set := range []string{upperSet, lowerSet, digitSet, Specials} {
			ch, err := pick(set)
			if err != nil {
				return "", err
			}
			buf = append(buf, ch)
		}
		for len(buf) < length {
			ch, err := pick(alphabet)
			if err != nil {
				return "", err
			}
			buf = append(buf, ch)
		}
		if err := shuffle(buf); err != nil {
			return "", err
		}
		pw := string(buf)
		if Validate(pw).Valid {
			return pw, nil
		}
	}
	return "", errGenerate
}

func pick(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("generate password: %w", err)
	}
	return set[n.Int64()], nil
}

func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
		j := int(n.Int64())
		b[i], b[j] = b[j], b[i]
	}
	return nil
}

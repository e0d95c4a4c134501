package password

import (
	"slices"
	"testing"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		pw        string
		valid     bool
		wantError string
	}{
		{name: "strong", pw: "Str0ng@Pass", valid: true},
		{name: "too short", pw: "Ab1@x", wantError: msgLength},
		{name: "no upper", pw: "weak@pass9", wantError: msgUpper},
		{name: "no lower", pw: "WEAK@PASS9", wantError: msgLower},
		{name: "no digit", pw: "Weak@Passw", wantError: msgDigit},
		{name: "no special", pw: "WeakPass9x", wantError: msgSpecial},
		{name: "common", pw: "Password123", wantError: msgCommon},
		{name: "sequential letters", pw: "Xyz@Pass9q", wantError: msgSeqLetters},
		{name: "sequential digits", pw: "Pa@ss7890w", wantError: msgSeqDigits},
		{name: "repeats", pw: "Paaa@ss9wx", wantError: msgRepeats},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := Validate(tc.pw)
			if r.Valid != tc.valid {
				t.Fatalf("Validate(%q).Valid=%v errors=%v", tc.pw, r.Valid, r.Errors)
			}
			if tc.wantError != "" && !slices.Contains(r.Errors, tc.wantError) {
				t.Fatalf("Validate(%q).Errors=%v, want %q", tc.pw, r.Errors, tc.wantError)
			}
			if tc.valid && len(r.Errors) != 0 {
				t.Fatalf("unexpected errors: %v", r.Errors)
			}
		})
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		pw       string
		score    int
		strength Strength
	}{
		{"Str0ng@Pass", 100, StrengthVeryStrong},
		{"password", 30, StrengthWeak},
		{"abc", 10, StrengthWeak},
		{"", 0, StrengthWeak},
		{"lowercase1", 60, StrengthStrong},
		{"lowercaseonly", 50, StrengthMedium},
	}
	for _, tc := range cases {
		if got := Score(tc.pw); got != tc.score {
			t.Fatalf("Score(%q)=%d, want %d", tc.pw, got, tc.score)
		}
		if got := StrengthFor(tc.score); got != tc.strength {
			t.Fatalf("StrengthFor(%d)=%s, want %s", tc.score, got, tc.strength)
		}
	}
}

func TestHashAndCompare(t *testing.T) {
	t.Parallel()

	h, err := Hash("Str0ng@Pass")
	if err != nil {
		t.Fatalf("Hash err=%v", err)
	}
	if !Compare(h, "Str0ng@Pass") {
		t.Fatalf("Compare with right password = false")
	}
	if Compare(h, "Str0ng@Pasx") {
		t.Fatalf("Compare with wrong password = true")
	}
	if Compare("not-a-hash", "Str0ng@Pass") {
		t.Fatalf("malformed hash must not match")
	}
}

func TestGenerateTemporary_IsCompliant(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		pw, err := GenerateTemporary()
		if err != nil {
			t.Fatalf("GenerateTemporary err=%v", err)
		}
		if r := Validate(pw); !r.Valid {
			t.Fatalf("generated %q invalid: %v", pw, r.Errors)
		}
		seen[pw] = true
	}
	if len(seen) < 2 {
		t.Fatalf("generated passwords are not random: %v", seen)
	}
}

// Package language defines the fixed set of languages the service can
// return text in.
package language

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnsupported indicates a language code outside the supported set.
var ErrUnsupported = errors.New("unsupported language")

// Code is a supported language code.
type Code string

// Supported language codes. Arabic is the language of the corpus.
const (
	Arabic  Code = "ar"
	English Code = "en"
	Urdu    Code = "ur"
	French  Code = "fr"
	German  Code = "de"
)

// Source is the language every passage is stored in.
const Source = Arabic

var names = map[Code]string{
	Arabic:  "Arabic",
	English: "English",
	Urdu:    "Urdu",
	French:  "French",
	German:  "German",
}

// Parse normalises s into a Code. The empty string and "source" both map to
// the source language.
func Parse(s string) (Code, error) {
	code := strings.ToLower(strings.TrimSpace(s))
	switch code {
	case "", "source":
		return Source, nil
	}
	c := Code(code)
	if _, ok := names[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
	}
	return c, nil
}

// All returns the supported codes, source first.
func All() []Code {
	return []Code{Arabic, English, Urdu, French, German}
}

// IsSource reports whether c is the corpus language.
func (c Code) IsSource() bool { return c == Source }

// Name returns the English name of the language, used in model prompts.
func (c Code) Name() string { return names[c] }

// String returns the code.
func (c Code) String() string { return string(c) }

// IsArabicScript reports whether most letters in s are Arabic script.
// Digits, punctuation and whitespace are ignored.
func IsArabicScript(s string) bool {
	var letters, arabic int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Arabic, r) {
			arabic++
		}
	}
	return letters > 0 && arabic*2 > letters
}

// nonArabicLetters are Arabic-script letters used by Urdu and Persian but not
// by Arabic.
var nonArabicLetters = map[rune]bool{
	'ٹ': true, 'پ': true, 'چ': true, 'ڈ': true, 'ڑ': true, 'ژ': true,
	'ک': true, 'گ': true, 'ں': true, 'ھ': true, 'ہ': true, 'ۃ': true,
	'ی': true, 'ے': true, 'ۓ': true,
}

// LooksArabic reports whether s is Arabic-script text with none of the
// letters specific to Urdu or Persian.
func LooksArabic(s string) bool {
	if !IsArabicScript(s) {
		return false
	}
	for _, r := range s {
		if nonArabicLetters[r] {
			return false
		}
	}
	return true
}

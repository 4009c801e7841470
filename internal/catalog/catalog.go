// Package catalog holds the fixed set of languages and frameworks a user can
// pick from, and the selection state that keeps the two consistent.
package catalog

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrUnknownLanguage  = errors.New("unknown language")
	ErrUnknownFramework = errors.New("unknown framework")
)

const (
	DefaultLanguage  = "javascript"
	DefaultFramework = "react"
)

var languages = []string{
	"javascript",
	"typescript",
	"php",
	"python",
	"ruby",
	"java",
	"csharp",
}

var webFrameworks = []string{"nodejs", "react", "angular", "vue"}

// languages with no entry here have no framework options
var frameworks = map[string][]string{
	"javascript": webFrameworks,
	"typescript": webFrameworks,
	"php":        {"laravel", "symfony", "wordpress"},
}

// returns the supported languages in display order
func Languages() []string {
	return slices.Clone(languages)
}

// reports whether lang is a supported language
func IsLanguage(lang string) bool {
	return slices.Contains(languages, lang)
}

// returns the framework options for lang, an empty list when it has none
func Frameworks(lang string) ([]string, error) {
	if !IsLanguage(lang) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}

	list := frameworks[lang]
	if list == nil {
		return []string{}, nil
	}

	return slices.Clone(list), nil
}

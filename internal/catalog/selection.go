package catalog

import (
	"fmt"
	"slices"
)

// Selection is a language and framework pair. Framework is either empty or
// one of Frameworks(Language).
type Selection struct {
	Language  string `json:"language"`
	Framework string `json:"framework"`
}

func DefaultSelection() Selection {
	return Selection{Language: DefaultLanguage, Framework: DefaultFramework}
}

// switches language and clears the framework
func (s *Selection) SetLanguage(lang string) error {
	if !IsLanguage(lang) {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}

	s.Language = lang
	s.Framework = ""

	return nil
}

// sets the framework; empty clears it
func (s *Selection) SetFramework(fw string) error {
	if fw == "" {
		s.Framework = ""
		return nil
	}

	options, err := Frameworks(s.Language)
	if err != nil {
		return err
	}

	if !slices.Contains(options, fw) {
		return fmt.Errorf("%w: %q is not offered for %s", ErrUnknownFramework, fw, s.Language)
	}

	s.Framework = fw

	return nil
}

// returns the framework options for the current language
func (s Selection) Options() []string {
	options, err := Frameworks(s.Language)
	if err != nil {
		return []string{}
	}

	return options
}

package featured

import "strings"

// Denylist rejects titles equal to, or starting with, one of its entries.
type Denylist struct {
	entries []string
}

// NewDenylist copies entries, ignoring blanks.
func NewDenylist(entries ...[]string) *Denylist {
	d := &Denylist{}
	for _, list := range entries {
		for _, e := range list {
			if e = strings.TrimSpace(e); e != "" {
				d.entries = append(d.entries, e)
			}
		}
	}
	return d
}

// IsAllowed reports whether title may appear in a trending list.
func (d *Denylist) IsAllowed(title string) bool {
	if d == nil {
		return true
	}
	for _, e := range d.entries {
		if strings.HasPrefix(title, e) {
			return false
		}
	}
	return true
}

// DenylistSet resolves the denylist of a language: shared entries plus
// language specific additions.
type DenylistSet struct {
	resolved map[string]*Denylist
}

// NewDenylistSet builds a set; languages may be nil.
func NewDenylistSet(shared []string, languages map[string][]string) *DenylistSet {
	s := &DenylistSet{resolved: map[string]*Denylist{}}
	s.resolved[""] = NewDenylist(shared)
	for lang, extra := range languages {
		s.resolved[lang] = NewDenylist(shared, extra)
	}
	return s
}

// For returns the denylist that applies to language.
func (s *DenylistSet) For(language string) *Denylist {
	if s == nil {
		return nil
	}
	if d, ok := s.resolved[language]; ok {
		return d
	}
	return s.resolved[""]
}

package featured

import (
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ViewsFormatter renders view counts with the digit grouping of a language.
type ViewsFormatter struct {
	mu       sync.Mutex
	printers map[string]*message.Printer
}

// NewViewsFormatter returns a formatter with an empty printer cache.
func NewViewsFormatter() *ViewsFormatter {
	return &ViewsFormatter{printers: map[string]*message.Printer{}}
}

// Format groups views for lang ("1,234" in English, "1.234" in German).
// Unknown tags fall back to English.
func (f *ViewsFormatter) Format(lang string, views int64) string {
	return f.printer(lang).Sprintf("%d", views)
}

func (f *ViewsFormatter) printer(lang string) *message.Printer {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.printers[lang]; ok {
		return p
	}
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	f.printers[lang] = p
	return p
}

package i18n

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var (
	catalogOnce sync.Once
	builder     *catalog.Builder
)

func messages() *catalog.Builder {
	catalogOnce.Do(func() {
		builder = catalog.NewBuilder(catalog.Fallback(language.English))
		for key, text := range english {
			_ = builder.SetString(language.English, key, text)
		}
		for key, text := range german {
			_ = builder.SetString(language.German, key, text)
		}
	})
	return builder
}

// Printer renders localized user-facing messages.
type Printer struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Printer for lang ("en" or "de"); unknown values fall back to English.
func New(lang string) *Printer {
	tag := language.English
	if strings.EqualFold(strings.TrimSpace(lang), "de") {
		tag = language.German
	}
	return &Printer{tag: tag, printer: message.NewPrinter(tag, message.Catalog(messages()))}
}

// Language returns the short language code.
func (p *Printer) Language() string {
	if p == nil {
		return "en"
	}
	base, _ := p.tag.Base()
	return base.String()
}

// Sprintf formats the message registered under key.
func (p *Printer) Sprintf(key string, args ...any) string {
	if p == nil {
		p = New("en")
	}
	return p.printer.Sprintf(key, args...)
}

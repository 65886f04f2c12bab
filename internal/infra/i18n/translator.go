package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// DefaultLocale is served when a request asks for a locale we do not ship.
const DefaultLocale = "pt-BR"

type Translator struct {
	lang         string
	translations map[string]string
}

// NewTranslator loads locales/<langCode>.yaml from fsys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", fmt.Sprintf("%s.yaml", langCode))
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, err
	}
	t.lang = langCode
	return t, nil
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

// T returns the message for key, formatted with args. Unknown keys come back unchanged.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

func (t *Translator) Lang() string { return t.lang }

// Catalog holds one translator per shipped locale.
type Catalog struct {
	fallback string
	byLang   map[string]*Translator
}

// NewCatalog loads every langs entry from fsys. fallback must be among them.
func NewCatalog(fsys fs.FS, fallback string, langs ...string) (*Catalog, error) {
	c := &Catalog{fallback: fallback, byLang: make(map[string]*Translator, len(langs))}
	for _, l := range langs {
		t, err := NewTranslator(fsys, l)
		if err != nil {
			return nil, err
		}
		c.byLang[strings.ToLower(l)] = t
	}
	if _, ok := c.byLang[strings.ToLower(fallback)]; !ok {
		return nil, fmt.Errorf("fallback locale %s not loaded", fallback)
	}
	return c, nil
}

// Match picks a translator from an Accept-Language style header. Exact tags win,
// then the primary language subtag, then the fallback.
func (c *Catalog) Match(acceptLanguage string) *Translator {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		if tag == "" {
			continue
		}
		if t, ok := c.byLang[tag]; ok {
			return t
		}
		primary := strings.SplitN(tag, "-", 2)[0]
		for l, t := range c.byLang {
			if strings.SplitN(l, "-", 2)[0] == primary {
				return t
			}
		}
	}
	return c.byLang[strings.ToLower(c.fallback)]
}

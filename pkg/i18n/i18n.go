// Package i18n renders the bot's user-facing texts in Turkish and Russian.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v2"
)

// Lang is a recipient's preferred language.
type Lang string

const (
	TR Lang = "tr"
	RU Lang = "ru"
)

// Default is used for unknown tags and as the fallback for missing keys.
const Default = TR

// ParseLang maps a stored tag to a Lang, defaulting to Turkish.
func ParseLang(value string) Lang {
	switch Lang(strings.ToLower(strings.TrimSpace(value))) {
	case RU:
		return RU
	default:
		return TR
	}
}

func (l Lang) tag() language.Tag {
	if l == RU {
		return language.Russian
	}
	return language.Turkish
}

//go:embed locales/*.yaml
var embeddedLocales embed.FS

type localeFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Catalog holds the printers for every supported language.
type Catalog struct {
	keys     map[Lang]map[string]struct{}
	printers map[Lang]*message.Printer
}

// Load reads the embedded locale files.
func Load() (*Catalog, error) {
	return LoadFromFS(embeddedLocales)
}

// LoadFromFS reads locales/*.yaml from fsys. Every supported language must be present
// and define the same set of keys.
func LoadFromFS(fsys fs.FS) (*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locales: %w", err)
	}
	sort.Strings(paths)

	builder := catalog.NewBuilder(catalog.Fallback(Default.tag()))
	c := &Catalog{
		keys:     map[Lang]map[string]struct{}{},
		printers: map[Lang]*message.Printer{},
	}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", p, err)
		}
		var file localeFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", p, err)
		}
		lang := Lang(strings.TrimSpace(file.Locale))
		if lang != TR && lang != RU {
			return nil, fmt.Errorf("locale %s: unsupported language %q", p, file.Locale)
		}
		if want := strings.TrimSuffix(path.Base(p), path.Ext(p)); string(lang) != want {
			return nil, fmt.Errorf("locale %s: language %q must match file name", p, lang)
		}
		keys := make(map[string]struct{}, len(file.Messages))
		for key, text := range file.Messages {
			if err := builder.SetString(lang.tag(), key, text); err != nil {
				return nil, fmt.Errorf("locale %s: key %q: %w", p, key, err)
			}
			keys[key] = struct{}{}
		}
		c.keys[lang] = keys
	}

	for _, lang := range []Lang{TR, RU} {
		if _, ok := c.keys[lang]; !ok {
			return nil, fmt.Errorf("missing locale %q", lang)
		}
		c.printers[lang] = message.NewPrinter(lang.tag(), message.Catalog(builder))
	}
	if missing := diffKeys(c.keys[TR], c.keys[RU]); len(missing) > 0 {
		return nil, fmt.Errorf("locales disagree on keys: %s", strings.Join(missing, ", "))
	}
	return c, nil
}

func diffKeys(a, b map[string]struct{}) []string {
	var out []string
	for key := range a {
		if _, ok := b[key]; !ok {
			out = append(out, key)
		}
	}
	for key := range b {
		if _, ok := a[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// Has reports whether key is defined for lang.
func (c *Catalog) Has(lang Lang, key string) bool {
	_, ok := c.keys[ParseLang(string(lang))][key]
	return ok
}

// Text renders key in lang. args fill the printf verbs of the template.
func (c *Catalog) Text(lang Lang, key string, args ...any) string {
	lang = ParseLang(string(lang))
	if !c.Has(lang, key) {
		lang = Default
	}
	return c.printers[lang].Sprintf(key, args...)
}

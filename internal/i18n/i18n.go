// Package i18n resolves the request language and serves message bundles for
// the four supported languages.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "lang"
	// DefaultLang is used when nothing else matches.
	DefaultLang = "en"
)

var supportedTags = []language.Tag{language.English, language.German, language.French, language.Spanish}

var matcher = language.NewMatcher(supportedTags)

var metaDescription = map[string]string{
	"de": "Armeebauer für Warhammer: The Old World und Warhammer Fantasy.",
	"en": "Army builder for Warhammer: The Old World and Warhammer Fantasy Battles.",
	"fr": "Un créateur de liste d'armée pour les jeux Games Workshop 'Warhammer: The Old World' et 'Warhammer Fantaisie'.",
	"es": "Creador de listas de ejército para los juegos de mesa de Games Workshop, Warhammer: The Old World y Warhammer Fantasy.",
}

// Supported returns the supported language codes.
func Supported() []string {
	out := make([]string, 0, len(supportedTags))
	for _, t := range supportedTags {
		base, _ := t.Base()
		out = append(out, base.String())
	}
	return out
}

// Normalize reduces a stored or requested value ("de-AT", "FR") to a
// supported two-letter code.
func Normalize(value string) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if len(value) > 2 {
		value = value[:2]
	}
	for _, code := range Supported() {
		if code == value {
			return code, true
		}
	}
	return "", false
}

// MatchAcceptLanguage picks the best supported language for an
// Accept-Language header, or fallback when nothing matches.
func MatchAcceptLanguage(header, fallback string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	base, _ := supportedTags[idx].Base()
	return base.String()
}

// Resolve determines the language for a request: the lang query param, then
// the lang cookie, then Accept-Language, then fallback. The bool reports
// whether the query param selected it and should be persisted as a cookie.
func Resolve(r *http.Request, fallback string) (string, bool) {
	if fb, ok := Normalize(fallback); ok {
		fallback = fb
	} else {
		fallback = DefaultLang
	}
	if r == nil {
		return fallback, false
	}
	if v := r.URL.Query().Get(LangParam); v != "" {
		if lang, ok := Normalize(v); ok {
			return lang, true
		}
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if lang, ok := Normalize(cookie.Value); ok {
			return lang, false
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		return MatchAcceptLanguage(accept, fallback), false
	}
	return fallback, false
}

// MetaDescription returns the page description for lang.
func MetaDescription(lang string) string {
	if d, ok := metaDescription[lang]; ok {
		return d
	}
	return metaDescription[DefaultLang]
}

type bundleFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Bundle holds the messages of every locale.
type Bundle struct {
	locales map[string]map[string]string
}

//go:embed locales/*.yaml
var embeddedFS embed.FS

// LoadEmbedded loads the bundles shipped with the binary.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedFS)
}

// LoadFromFS loads locales/*.yaml from fsys. The default language must be
// present.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale bundles: %w", err)
	}
	sort.Strings(paths)

	b := &Bundle{locales: map[string]map[string]string{}}
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read bundle %s: %w", path, err)
		}
		var f bundleFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse bundle %s: %w", path, err)
		}
		fromPath := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if f.Locale != fromPath {
			return nil, fmt.Errorf("bundle %s: locale %q must match file name %q", path, f.Locale, fromPath)
		}
		if _, ok := Normalize(f.Locale); !ok {
			return nil, fmt.Errorf("bundle %s: unsupported locale %q", path, f.Locale)
		}
		b.locales[f.Locale] = f.Messages
	}
	if _, ok := b.locales[DefaultLang]; !ok {
		return nil, fmt.Errorf("default locale %s has no bundle", DefaultLang)
	}
	return b, nil
}

// Message looks key up in lang, then in the default language. Unknown keys
// come back unchanged.
func (b *Bundle) Message(lang, key string) string {
	if m, ok := b.locales[lang][key]; ok {
		return m
	}
	if m, ok := b.locales[DefaultLang][key]; ok {
		return m
	}
	return key
}

// Messages returns every message for lang with default-language fallbacks
// filled in.
func (b *Bundle) Messages(lang string) map[string]string {
	out := make(map[string]string, len(b.locales[DefaultLang]))
	for k, v := range b.locales[DefaultLang] {
		out[k] = v
	}
	for k, v := range b.locales[lang] {
		out[k] = v
	}
	return out
}

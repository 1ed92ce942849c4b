package console

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is the locale operators see unless configured otherwise.
const DefaultLocale = "pt-BR"

// Message keys shared by the resolver, orchestrator and front ends.
const (
	KeyViewTitleAll          = "view.title.all"
	KeyViewTitleActive       = "view.title.active"
	KeyViewTitleBlocked      = "view.title.blocked"
	KeyViewTitlePending      = "view.title.pending"
	KeyViewSubtitleAll       = "view.subtitle.all"
	KeyViewSubtitleFiltered  = "view.subtitle.filtered"
	KeyViewEmpty             = "view.empty"
	KeyUserNoAlias           = "user.no_alias"
	KeyUserStatusActive      = "user.status.active"
	KeyUserStatusBlocked     = "user.status.blocked"
	KeyUserDaysActive        = "user.days_active"
	KeyUserRenewalDue        = "user.renewal_due"
	KeyFeedbackTitleSuccess  = "feedback.title.success"
	KeyFeedbackTitleError    = "feedback.title.error"
	KeyFeedbackTitleInfo     = "feedback.title.info"
	KeyFeedbackGenericError  = "feedback.generic_error"
	KeyFeedbackAllowError    = "feedback.allow.error"
	KeyFeedbackHistorySoon   = "feedback.history_soon"
	KeyHistoryEmpty          = "history.empty"
	KeyHistoryFailed         = "history.failed"
	KeyHistoryBalance        = "history.balance"
	KeyStatsTotal            = "stats.total"
	KeyStatsActive           = "stats.active"
	KeyStatsBlocked          = "stats.blocked"
	KeyStatsPending          = "stats.pending"
	KeyStatsVolume           = "stats.volume"
	KeyStatsStale            = "stats.stale"
	KeyChartTitle            = "chart.title"
	KeyChartSubtitle         = "chart.subtitle"
	KeyChartSeries           = "chart.series"
	defaultLocaleCatalogName = "default"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// TranslationService resolves message keys for a locale. Catalog is the
// bundled implementation; applications may plug in their own.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

type localeFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Catalog stores message templates per key and locale. Templates interpolate
// `{name}` placeholders from the args map.
type Catalog struct {
	mu       sync.RWMutex
	messages map[string]map[string]string
	locales  map[string]struct{}
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		messages: make(map[string]map[string]string),
		locales:  make(map[string]struct{}),
	}
}

// LoadCatalog builds a catalog from the bundled locale files.
func LoadCatalog() (*Catalog, error) {
	catalog := NewCatalog()
	err := fs.WalkDir(localeFS, "locales", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".yaml" {
			return nil
		}
		data, err := localeFS.ReadFile(p)
		if err != nil {
			return fmt.Errorf("console: read locale %s: %w", p, err)
		}
		var file localeFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("console: parse locale %s: %w", p, err)
		}
		if file.Locale == "" {
			file.Locale = strings.TrimSuffix(path.Base(p), ".yaml")
		}
		catalog.Add(file.Locale, file.Messages)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	catalog, err := LoadCatalog()
	if err != nil {
		return NewCatalog()
	}
	return catalog
})

// DefaultCatalog returns the shared catalog loaded from the bundled locales.
func DefaultCatalog() *Catalog {
	return defaultCatalog()
}

// Add registers templates for a locale. Messages for DefaultLocale also
// become the fallback for locales without a translation.
func (c *Catalog) Add(locale string, messages map[string]string) {
	normalized := normalizeLocale(locale)
	if normalized == "" {
		return
	}
	isDefault := normalized == normalizeLocale(DefaultLocale)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locales[normalized] = struct{}{}
	for key, value := range messages {
		if key == "" || value == "" {
			continue
		}
		entry, ok := c.messages[key]
		if !ok {
			entry = make(map[string]string)
			c.messages[key] = entry
		}
		entry[normalized] = value
		if isDefault {
			entry[defaultLocaleCatalogName] = value
		}
	}
}

// Locales lists the registered locales in normalized form.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.locales))
	for locale := range c.locales {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Translate implements TranslationService.
func (c *Catalog) Translate(_ context.Context, key, locale string, args map[string]any) (string, error) {
	c.mu.RLock()
	values := c.messages[key]
	c.mu.RUnlock()
	template := ResolveLocalizedValue(values, locale, "")
	if template == "" {
		return "", fmt.Errorf("console: no translation for %q", key)
	}
	return interpolate(template, args), nil
}

func interpolate(template string, args map[string]any) string {
	if len(args) == 0 || !strings.Contains(template, "{") {
		return template
	}
	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// ResolveLocalizedValue selects the best translation for the provided locale
// and falls back to the supplied value. Language-region pairs (`pt-br`) fall
// back to their base language (`pt`) and then to the `default` entry.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		if candidate == "" {
			continue
		}
		for key, value := range values {
			if strings.EqualFold(key, candidate) && value != "" {
				return value
			}
		}
	}
	return fallback
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{defaultLocaleCatalogName}
	}
	candidates := []string{locale}
	if idx := strings.Index(locale, "-"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	return append(candidates, defaultLocaleCatalogName)
}

func normalizeLocale(locale string) string {
	locale = strings.TrimSpace(strings.ReplaceAll(locale, "_", "-"))
	if locale == "" {
		return ""
	}
	if tag, err := language.Parse(locale); err == nil {
		return strings.ToLower(tag.String())
	}
	return strings.ToLower(locale)
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}

// Localizer binds a TranslationService to one locale and formats numbers the
// way that locale expects. A nil *Localizer behaves like the default one.
type Localizer struct {
	svc     TranslationService
	locale  string
	printer *message.Printer
}

// NewLocalizer builds a Localizer. A nil service uses DefaultCatalog and an
// empty locale uses DefaultLocale.
func NewLocalizer(svc TranslationService, locale string) *Localizer {
	if svc == nil {
		svc = DefaultCatalog()
	}
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	return &Localizer{
		svc:     svc,
		locale:  tag.String(),
		printer: message.NewPrinter(tag),
	}
}

var defaultLocalizer = sync.OnceValue(func() *Localizer {
	return NewLocalizer(nil, DefaultLocale)
})

func (l *Localizer) orDefault() *Localizer {
	if l == nil {
		return defaultLocalizer()
	}
	return l
}

// Locale returns the BCP 47 tag in canonical form.
func (l *Localizer) Locale() string {
	return l.orDefault().locale
}

// T translates key, returning the key itself when no template exists.
func (l *Localizer) T(key string, args map[string]any) string {
	l = l.orDefault()
	return translateOrFallback(context.Background(), l.svc, key, l.locale, "", args)
}

// FormatAmount renders a monetary amount with two decimals.
func (l *Localizer) FormatAmount(v float64) string {
	return l.orDefault().printer.Sprintf("%.2f", v)
}

// FormatCount renders an integer with locale grouping.
func (l *Localizer) FormatCount(n int) string {
	return l.orDefault().printer.Sprintf("%d", n)
}

// UserAlias returns the @handle or the localized placeholder.
func (l *Localizer) UserAlias(u User) string {
	if alias := u.Alias(); alias != "" {
		return alias
	}
	return l.T(KeyUserNoAlias, nil)
}

// UserStatus returns the localized access status label.
func (l *Localizer) UserStatus(u User) string {
	if u.Allowed {
		return l.T(KeyUserStatusActive, nil)
	}
	return l.T(KeyUserStatusBlocked, nil)
}

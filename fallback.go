package interact

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/text/language"
)

const (
	FallbackOfferName = "Default Offer"
	FallbackOfferCode = "DEFAULT_OFFER"
	fallbackScore     = 100
)

// FallbackStrings are the translated texts of the default offer.
type FallbackStrings struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Copy        string `json:"copy"`
	Image       string `json:"image"`
	CTA         string `json:"cta"`
	Link        string `json:"link"`
}

// FallbackCatalog serves the default offer shown whenever no personalized
// offer is available, in the language closest to the one requested.
type FallbackCatalog struct {
	tags    []language.Tag
	strings []FallbackStrings
	matcher language.Matcher
}

// NewFallbackCatalog builds a catalog from texts keyed by BCP 47 tag. The
// default locale is used when nothing matches.
func NewFallbackCatalog(defaultLocale string, locales map[string]FallbackStrings) (*FallbackCatalog, error) {
	def, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("default locale %q: %w", defaultLocale, err)
	}
	defStrings, ok := locales[defaultLocale]
	if !ok {
		return nil, fmt.Errorf("no fallback strings for default locale %q", defaultLocale)
	}

	c := &FallbackCatalog{
		tags:    []language.Tag{def},
		strings: []FallbackStrings{defStrings},
	}

	keys := maps.Keys(locales)
	slices.Sort(keys)
	for _, k := range keys {
		if k == defaultLocale {
			continue
		}
		tag, err := language.Parse(k)
		if err != nil {
			return nil, fmt.Errorf("locale %q: %w", k, err)
		}
		c.tags = append(c.tags, tag)
		c.strings = append(c.strings, locales[k])
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// DefaultFallbackCatalog returns the built-in English catalog.
func DefaultFallbackCatalog() *FallbackCatalog {
	c, _ := NewFallbackCatalog("en", map[string]FallbackStrings{
		"en": {
			Title:       "Special offer",
			Description: "Discover our latest deals on phones, plans and broadband.",
			Copy:        "Great offer just for you!",
			Image:       "/placeholder-offer.jpg",
			CTA:         "Learn More",
			Link:        "#",
		},
	})
	return c
}

// ReadFallbackCatalogFromFile reads a catalog from a JSON file of the form
// {"default": "en", "locales": {"en": {...}, "fr": {...}}}.
func ReadFallbackCatalogFromFile(name string) (*FallbackCatalog, error) {
	file, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Default string                     `json:"default"`
		Locales map[string]FallbackStrings `json:"locales"`
	}
	if err := json.Unmarshal(file, &doc); err != nil {
		return nil, err
	}
	return NewFallbackCatalog(valueOr(doc.Default, "en"), doc.Locales)
}

// Strings returns the texts for the locale best matching the given one, which
// may be a tag or an Accept-Language value.
func (c *FallbackCatalog) Strings(locale string) FallbackStrings {
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		return c.strings[0]
	}
	_, i, _ := c.matcher.Match(tags...)
	return c.strings[i]
}

// Offer returns the default offer in the best matching locale.
func (c *FallbackCatalog) Offer(locale string) Offer {
	s := c.Strings(locale)
	return Offer{
		Name:          FallbackOfferName,
		Code:          FallbackOfferCode,
		TreatmentCode: FallbackOfferCode,
		Score:         fallbackScore,
		Description:   s.Description,
		Attributes: []NameValuePair{
			NewNameValuePair(AttrTitle, s.Title, TypeString),
			NewNameValuePair(AttrCopy, s.Copy, TypeString),
			NewNameValuePair(AttrBannerURL, s.Image, TypeString),
			NewNameValuePair(AttrCTA, s.CTA, TypeString),
			NewNameValuePair(AttrLandingURL, s.Link, TypeString),
		},
	}
}

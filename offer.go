package interact

import (
	"encoding/json"
)

// Offer attribute names used by the storefront offer templates.
const (
	AttrTitle       = "offer_title"
	AttrCopy        = "offer_copy"
	AttrDescription = "offer_description"
	AttrBannerURL   = "AbsoluteBannerURL"
	AttrImage       = "offer_image"
	AttrCTA         = "offer_cta"
	AttrLandingURL  = "AbsoluteLandingPageURL"
	AttrLink        = "offer_link"
)

const (
	defaultDisplayDescription = "Great offer just for you!"
	defaultDisplayImage       = "/placeholder-offer.jpg"
	defaultDisplayCTA         = "Learn More"
	defaultDisplayLink        = "#"
)

// Offer is a single decision returned by the server, or the localized
// fallback. Offers are never modified after construction.
type Offer struct {
	Name          string          `json:"n"`
	Code          string          `json:"code"`
	TreatmentCode string          `json:"treatmentCode"`
	Score         float64         `json:"score"`
	Description   string          `json:"desc"`
	Attributes    []NameValuePair `json:"attributes"`
}

// UnmarshalJSON flattens an array-valued "code" to its first element.
func (o *Offer) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name          string          `json:"n"`
		Code          flexString      `json:"code"`
		TreatmentCode flexString      `json:"treatmentCode"`
		Score         float64         `json:"score"`
		Description   string          `json:"desc"`
		Attributes    []NameValuePair `json:"attributes"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	o.Name = aux.Name
	o.Code = string(aux.Code)
	o.TreatmentCode = string(aux.TreatmentCode)
	o.Score = aux.Score
	o.Description = aux.Description
	o.Attributes = make([]NameValuePair, 0, len(aux.Attributes))
	for _, a := range aux.Attributes {
		o.Attributes = append(o.Attributes, NewNameValuePair(a.Name, a.Value, a.Type))
	}
	return nil
}

// Attribute returns the attribute with the given name, ignoring case.
func (o Offer) Attribute(name string) (NameValuePair, bool) {
	return findPair(o.Attributes, name)
}

// AttributeString returns the first non-empty attribute among names, or "".
func (o Offer) AttributeString(names ...string) string {
	for _, name := range names {
		if a, ok := o.Attribute(name); ok && a.Value != nil {
			if s := a.String(); s != "" {
				return s
			}
		}
	}
	return ""
}

// OfferDisplay is the flattened view a template renders.
type OfferDisplay struct {
	Name          string `json:"name"`
	Code          string `json:"code"`
	TreatmentCode string `json:"treatmentCode"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	ImageURL      string `json:"imageUrl"`
	CTA           string `json:"cta"`
	LinkURL       string `json:"linkUrl"`
}

// Display extracts display fields from the offer attributes with the
// storefront defaults.
func (o Offer) Display() OfferDisplay {
	return OfferDisplay{
		Name:          o.Name,
		Code:          o.Code,
		TreatmentCode: o.TreatmentCode,
		Title:         firstNonEmpty(o.AttributeString(AttrTitle), o.Name),
		Description:   firstNonEmpty(o.AttributeString(AttrCopy, AttrDescription), o.Description, defaultDisplayDescription),
		ImageURL:      firstNonEmpty(o.AttributeString(AttrBannerURL, AttrImage), defaultDisplayImage),
		CTA:           firstNonEmpty(o.AttributeString(AttrCTA), defaultDisplayCTA),
		LinkURL:       firstNonEmpty(o.AttributeString(AttrLandingURL, AttrLink), defaultDisplayLink),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

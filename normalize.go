package interact

// OfferSource tells where a displayed offer came from.
type OfferSource string

const (
	SourcePersonalized OfferSource = "personalized"
	SourceFallback     OfferSource = "fallback"
)

// Reasons a result yields no personalized offer.
const (
	ReasonNoResponse = "no_response"
	ReasonNoOffers   = "no_offers"
	ReasonBatchError = "batch_error"
	ReasonEmpty      = "empty"
	ReasonTransport  = "transport_error"
	ReasonTimeout    = "timeout"
)

// NormalizedOfferResult is the one shape every offer consumer reads,
// whatever form the server answered in.
type NormalizedOfferResult struct {
	// Offer is nil when no personalized offer was found; Reason says why.
	Offer            *Offer
	InteractionPoint string
	Reason           string
	StatusCode       int
	Messages         []AdvisoryMessage
}

// Found reports whether a personalized offer was extracted.
func (n NormalizedOfferResult) Found() bool {
	return n.Offer != nil
}

// NormalizeOffers extracts the offer to show from a decoded result. A batch
// with a non-zero status is never trusted for offers. Otherwise the first
// response whose first offer list holds an offer wins.
func NormalizeOffers(res *Result) NormalizedOfferResult {
	if res == nil {
		return NormalizedOfferResult{Reason: ReasonNoResponse}
	}

	n := NormalizedOfferResult{StatusCode: res.StatusCode(), Messages: res.Messages()}
	if res.IsBatch() {
		switch {
		case n.StatusCode == StatusNoOffers:
			n.Reason = ReasonNoOffers
			return n
		case n.StatusCode > 0:
			n.Reason = ReasonBatchError
			return n
		}
	}

	for _, r := range res.Responses() {
		if len(r.OfferLists) == 0 || len(r.OfferLists[0].Offers) == 0 {
			continue
		}
		list := r.OfferLists[0]
		offer := list.Offers[0]
		n.Offer = &offer
		n.InteractionPoint = list.InteractionPoint
		return n
	}

	n.Reason = ReasonEmpty
	return n
}

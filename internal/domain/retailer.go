package domain

import (
	"strings"
	"unicode"
)

// RetailerProfile is display metadata for a retailer. It carries no pricing logic.
type RetailerProfile struct {
	ID            string `json:"id"`
	DisplayName   string `json:"displayName"`
	LoyaltyScheme string `json:"loyaltyScheme,omitempty"`
	BaseURL       string `json:"baseUrl,omitempty"`
	Known         bool   `json:"known"`
}

// knownRetailers is the closed set of retailers the front-end has artwork for
var knownRetailers = []RetailerProfile{
	{ID: "TESCO", DisplayName: "Tesco", LoyaltyScheme: "Clubcard", BaseURL: "https://www.tesco.com"},
	{ID: "SAINSBURYS", DisplayName: "Sainsbury's", LoyaltyScheme: "Nectar", BaseURL: "https://www.sainsburys.co.uk"},
	{ID: "ASDA", DisplayName: "Asda", LoyaltyScheme: "Asda Rewards", BaseURL: "https://www.asda.com"},
	{ID: "MORRISONS", DisplayName: "Morrisons", LoyaltyScheme: "Morrisons More", BaseURL: "https://groceries.morrisons.com"},
	{ID: "ALDI", DisplayName: "Aldi", BaseURL: "https://www.aldi.co.uk"},
	{ID: "LIDL", DisplayName: "Lidl", BaseURL: "https://www.lidl.co.uk"},
	{ID: "COSTCO", DisplayName: "Costco", BaseURL: "https://www.costco.co.uk"},
	{ID: "BM", DisplayName: "B&M", BaseURL: "https://www.bmstores.co.uk"},
	{ID: "COOP", DisplayName: "Co-op", LoyaltyScheme: "Co-op Membership", BaseURL: "https://www.coop.co.uk"},
	{ID: "POUNDLAND", DisplayName: "Poundland", BaseURL: "https://www.poundland.co.uk"},
	{ID: "ICELAND", DisplayName: "Iceland", LoyaltyScheme: "Bonus Card", BaseURL: "https://www.iceland.co.uk"},
	{ID: "WHITE_ROSE", DisplayName: "White Rose", BaseURL: "https://www.whiterose.co.uk"},
	{ID: "HOTDEALS", DisplayName: "HotDeals", BaseURL: "https://www.hotdealsuk.com"},
}

var retailerIndex = func() map[string]int {
	index := make(map[string]int, len(knownRetailers)*2)
	for i, r := range knownRetailers {
		index[retailerKey(r.ID)] = i
		index[retailerKey(r.DisplayName)] = i
	}
	return index
}()

// KnownRetailers returns the profiles of all known retailers
func KnownRetailers() []RetailerProfile {
	out := make([]RetailerProfile, len(knownRetailers))
	for i, r := range knownRetailers {
		r.Known = true
		out[i] = r
	}
	return out
}

// LookupRetailer resolves a retailer identifier or display name to its profile.
// Matching ignores case and punctuation, so "B&M", "bm" and "BM" are the same
// retailer. Unknown retailers get a fallback profile named after the input.
func LookupRetailer(retailer string) RetailerProfile {
	if i, ok := retailerIndex[retailerKey(retailer)]; ok {
		r := knownRetailers[i]
		r.Known = true
		return r
	}
	name := strings.TrimSpace(retailer)
	return RetailerProfile{
		ID:          strings.ToUpper(retailerKey(retailer)),
		DisplayName: name,
	}
}

// retailerKey reduces a retailer name to lower-case letters and digits
func retailerKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

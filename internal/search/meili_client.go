// Package search keeps a Meilisearch index of the master list for typo
// tolerant lookups by name
package search

import (
	"fmt"
	"strings"
)

// Filter narrows a search to records under one province, district or postal code
type Filter struct {
	Province   string
	District   string
	PostalCode string
}

// String renders the filter in Meilisearch syntax, e.g.
// province = "อุดรธานี" AND postal_code = "41000"
func (f Filter) String() string {
	var parts []string
	if f.Province != "" {
		parts = append(parts, FilterEquals("province", f.Province))
	}
	if f.District != "" {
		parts = append(parts, FilterEquals("district", f.District))
	}
	if f.PostalCode != "" {
		parts = append(parts, FilterEquals("postal_code", f.PostalCode))
	}
	return strings.Join(parts, " AND ")
}

// FilterEquals creates an equality filter on one attribute
func FilterEquals(attr, value string) string {
	return fmt.Sprintf("%s = %q", attr, value)
}

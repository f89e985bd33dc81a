package models

import "fmt"

// SupplierCatalog groups the Europa sub-suppliers and the independent
// suppliers the distributor works with.
type SupplierCatalog struct {
	EuropaName   string   `json:"europa_name"`
	Europa       []string `json:"europa"`
	Independents []string `json:"independents"`
}

// DefaultSuppliers returns the distributor's supplier catalog.
func DefaultSuppliers() SupplierCatalog {
	return SupplierCatalog{
		EuropaName: "Europa",
		Europa: []string{
			"Aconcagua",
			"Campari",
			"Cepas Argentinas",
			"Coca Cola",
			"Dellepiane",
			"Fratelli Branca",
			"La Rural",
			"Las Perdices",
			"Mani King",
			"Millan",
			"Norton",
			"Pernord Ricard",
			"Salentein",
			"Zuccardi",
		},
		Independents: []string{
			"Speed VM",
			"Gin Merle",
			"Coffico",
			"Berlin",
			"Liquid Point",
			"Corral de Palos",
			"Full Bazar",
			"Full Escabio",
		},
	}
}

// EuropaDisplayName formats an Europa sub-supplier the way orders record
// it, e.g. "Norton (Europa)".
func (c SupplierCatalog) EuropaDisplayName(sub string) string {
	return fmt.Sprintf("%s (%s)", sub, c.EuropaName)
}

// DisplayNames returns every selectable supplier name: Europa
// sub-suppliers with the group suffix, then independents.
func (c SupplierCatalog) DisplayNames() []string {
	names := make([]string, 0, len(c.Europa)+len(c.Independents))
	for _, sub := range c.Europa {
		names = append(names, c.EuropaDisplayName(sub))
	}
	names = append(names, c.Independents...)
	return names
}

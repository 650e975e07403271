// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package catalog

// Filter is a JSON-like filter tree understood by the catalog's get
// endpoints, built from the $AND/$NOR/$GTE vocabulary. The concrete
// representation is this service's concern only — compatibility with a
// given catalog's query language is the catalog's concern, per the
// external-interface contract.
type Filter map[string]interface{}

// Eq builds a field-equals-value leaf filter.
func Eq(field string, value interface{}) Filter {
	return Filter{field: value}
}

// Gte builds a "field >= value" leaf filter.
func Gte(field string, value interface{}) Filter {
	return Filter{field: Filter{"$GTE": value}}
}

// And combines filters with logical AND.
func And(filters ...Filter) Filter {
	return Filter{"$AND": filters}
}

// Nor combines filters with logical NOR (none of these may match).
func Nor(filters ...Filter) Filter {
	return Filter{"$NOR": filters}
}

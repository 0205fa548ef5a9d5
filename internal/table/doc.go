// Package table renders the accumulated roster as a two-column listing.
//
// The renderer is a pure function of its input: a fixed header row
// ("Name", "Location") followed by one row per record in insertion order.
// Even-indexed rows (0-based) use the stripe style so long listings stay
// readable. Missing fields render as empty cells.
//
// The column set is fixed. Arbitrary columns, scrolling and virtualization
// are not handled here.
package table

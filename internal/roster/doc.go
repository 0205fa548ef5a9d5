// Package roster holds the entries collected by the name/location form.
//
// A Roster is an ordered, append-only sequence of Records. Order is
// significant: it drives row position and striping in the table renderer.
// Duplicate records are permitted. The only way to remove entries is to
// clear the whole roster.
package roster

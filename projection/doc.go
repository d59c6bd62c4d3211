// Package projection derives what each role's dashboard shows from a catalog
// snapshot: status counts, loan quota, notification badges and the header.
// All functions are pure and deterministic given the books and the time.
package projection

// Package circulation holds the role-scoped circulation rules for books.
//
// Everything here is a pure function of a book snapshot, a request and the
// current time. Permissions come from a single role capability table, and the
// overdue status is never stored: Effective recomputes it on every read.
package circulation

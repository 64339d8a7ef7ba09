// Package journal records failed items in an append-only text file, one line
// per failure. The file doubles as a retry work list: a later run can
// re-derive locators from it. Lines are never rewritten or rotated; operators
// archive the file externally.
package journal

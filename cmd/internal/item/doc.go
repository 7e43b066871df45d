// Package item holds the item catalogue and its field-by-field validation.
//
// Validate never stops at the first problem: every failing field gets an
// entry in Errors, plus GlobalKey for rules spanning several fields.
package item

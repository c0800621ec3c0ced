// Package output renders command results as tables, JSON or YAML, and
// formats money, dates and card numbers for display.
package output

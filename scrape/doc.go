// Package scrape assembles the record store from a remote Source.
//
// For every entry the Assembler fetches one peak list per requested source,
// discretizes the lists that exist and skips the sources that do not. Space
// group and lattice are fetched exactly once per entry. A source without a
// peak list is never represented by a zero vector.
//
// Query failures abort the run by default (FailFast) and name the entry.
// SkipEntry instead drops the failing entry, logs it and reports it.
package scrape

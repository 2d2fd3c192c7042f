// Package dataset turns a record store into train and test partitions for
// space group classification.
//
// Build runs five stages in order:
//
//	filter   keep space groups with at least Threshold (entry, source) instances
//	select   one sample per available source ("all") or per entry with the named source
//	encode   map space groups to class indices (sorted symbols)
//	balance  optional SMOTE oversampling up to the majority class
//	split    seeded shuffle, the first ceil(TestFraction*n) samples become the test set
//
// Entries are visited in id order and sources in name order, so identical
// input and seed always produce identical partitions.
package dataset

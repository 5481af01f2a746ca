// Package textutil provides text cleanup helpers applied to provider output
// before it is written to disk.
//
// RepairEncoding undoes the common UTF-8-read-as-Latin-1 corruption seen in
// Portuguese transcripts and normalizes the result to NFC. AppendSpaced joins
// transcript fragments without doubling whitespace at the seam.
package textutil

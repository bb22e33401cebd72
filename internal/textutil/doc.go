// Package textutil provides the text canonicalization shared by every stage of
// the pipeline: the identity name key, header folding, and filename
// sanitization.
//
// NormalizeName is the only producer of the normalized name key. The loader,
// the staging writer, the non-person filter and the migration engine all compare
// names through it, so any change here changes identity resolution everywhere.
//
// Diacritics are removed with a golang.org/x/text transform chain (NFD, drop
// nonspacing marks, NFC). Fold is the looser variant used for headers and path
// segments: lowercase, diacritics removed, whitespace collapsed, punctuation kept.
package textutil

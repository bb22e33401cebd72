// Package identity holds the person candidate model, the match keys used to
// recognize the same person across sources, and the in-memory
// deduplication index used while extracting tabular rows.
//
// MatchKey is a tagged union over the identity key cascade: national id,
// email, name plus phone, and name alone. KeysFor returns a candidate's keys
// in cascade order. Index is an explicit value threaded through one
// extraction run; tests construct and inspect it directly.
package identity

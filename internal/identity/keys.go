package identity

import (
	"fmt"

	"enrollsync/internal/textutil"
)

// KeyKind tags the variant of a MatchKey.
type KeyKind int

const (
	KeyNationalID KeyKind = iota + 1
	KeyEmail
	KeyNamePhone
	KeyNameOnly
)

func (k KeyKind) String() string {
	switch k {
	case KeyNationalID:
		return "national_id"
	case KeyEmail:
		return "email"
	case KeyNamePhone:
		return "name_phone"
	case KeyNameOnly:
		return "name_only"
	default:
		return "unknown"
	}
}

// MatchKey identifies a person by one variant of the key cascade. Value is
// already canonical for its kind, so MatchKey is comparable and usable as a
// map key.
type MatchKey struct {
	Kind  KeyKind
	Value string
}

func (k MatchKey) String() string {
	return fmt.Sprintf("%s:%s", k.Kind, k.Value)
}

// NationalIDKey builds a national id key.
func NationalIDKey(id string) MatchKey {
	return MatchKey{Kind: KeyNationalID, Value: CleanNationalID(id)}
}

// EmailKey builds an email key.
func EmailKey(email string) MatchKey {
	return MatchKey{Kind: KeyEmail, Value: CleanEmail(email)}
}

// NamePhoneKey builds a key from a name and the digits of a phone number.
func NamePhoneKey(name, phone string) MatchKey {
	return MatchKey{Kind: KeyNamePhone, Value: textutil.NormalizeName(name) + "|" + textutil.DigitsOnly(phone)}
}

// NameOnlyKey builds a key from a normalized name alone.
func NameOnlyKey(name string) MatchKey {
	return MatchKey{Kind: KeyNameOnly, Value: textutil.NormalizeName(name)}
}

// KeysFor returns the keys of c in cascade order. NameOnly is produced only
// when c carries no strong key, so two people who share a name but not
// contact details never collapse.
func KeysFor(c Candidate) []MatchKey {
	keys := make([]MatchKey, 0, 3)
	if c.NationalID != "" {
		keys = append(keys, NationalIDKey(c.NationalID))
	}
	if c.Email != "" {
		keys = append(keys, EmailKey(c.Email))
	}
	if c.NormalizedName != "" && textutil.DigitsOnly(c.Phone) != "" {
		keys = append(keys, NamePhoneKey(c.NormalizedName, c.Phone))
	}
	if len(keys) == 0 && c.NormalizedName != "" {
		keys = append(keys, NameOnlyKey(c.NormalizedName))
	}
	return keys
}

// PrimaryKey returns the highest-priority key of c.
func PrimaryKey(c Candidate) (MatchKey, bool) {
	keys := KeysFor(c)
	if len(keys) == 0 {
		return MatchKey{}, false
	}
	return keys[0], true
}

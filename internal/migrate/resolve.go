package migrate

import (
	"context"

	"enrollsync/internal/failure"
	"enrollsync/internal/identity"
	"enrollsync/internal/production"
)

// Probe names the cascade step that resolved a person.
type Probe string

const (
	ProbeNone          Probe = ""
	ProbeNationalID    Probe = "national_id"
	ProbeEmail         Probe = "email"
	ProbeNameBirthDate Probe = "name_birth_date"
	ProbeNamePhone     Probe = "name_phone"
	ProbeName          Probe = "name"
	ProbeNamePrefix    Probe = "name_prefix"
)

// Match is the outcome of FindOrCreate.
type Match struct {
	Person  production.Person
	Probe   Probe
	Created bool
	// Filled lists the production columns the merge filled.
	Filled []string
}

// FindOrCreate resolves incoming against production inside tx. The first
// probe that hits wins and the stored person is merged with incoming;
// otherwise incoming is inserted, with a placeholder email when it has none.
func FindOrCreate(ctx context.Context, tx *production.Tx, incoming production.Person) (Match, error) {
	if incoming.NormalizedName == "" && incoming.Email == "" && incoming.Phone == "" && incoming.NationalID == "" {
		return Match{}, failure.Wrap(failure.ErrValidation, "migrate", "find or create", "person has no name and no contact fields", nil)
	}

	found, probe, err := resolve(ctx, tx, incoming, true)
	if err != nil {
		return Match{}, err
	}
	if found != nil {
		filled, err := tx.MergePerson(ctx, *found, incoming)
		if err != nil {
			return Match{}, err
		}
		return Match{Person: *found, Probe: probe, Filled: filled}, nil
	}

	if incoming.Email == "" {
		incoming.Email = identity.PlaceholderEmail(identity.Candidate{
			FullName:       incoming.FullName,
			NormalizedName: incoming.NormalizedName,
			Phone:          incoming.Phone,
		})
		incoming.PlaceholderEmail = true
	}
	created, err := tx.CreatePerson(ctx, incoming)
	if err != nil {
		return Match{}, err
	}
	return Match{Person: created, Created: true}, nil
}

// resolve runs the probe cascade without writing. The prefix probe runs only
// when allowPrefix is set and p carries no contact field at all.
func resolve(ctx context.Context, tx *production.Tx, p production.Person, allowPrefix bool) (*production.Person, Probe, error) {
	type step struct {
		probe Probe
		ok    bool
		find  func() (*production.Person, error)
	}
	steps := []step{
		{ProbeNationalID, p.NationalID != "", func() (*production.Person, error) {
			return tx.PersonByNationalID(ctx, p.NationalID)
		}},
		{ProbeEmail, p.Email != "" && !identity.IsPlaceholderEmail(p.Email), func() (*production.Person, error) {
			return tx.PersonByEmail(ctx, p.Email)
		}},
		{ProbeNameBirthDate, p.NormalizedName != "" && !p.BirthDate.IsZero(), func() (*production.Person, error) {
			return tx.PersonByNameAndBirthDate(ctx, p.NormalizedName, p.BirthDate)
		}},
		{ProbeNamePhone, p.NormalizedName != "" && p.Phone != "", func() (*production.Person, error) {
			return tx.PersonByNameAndPhone(ctx, p.NormalizedName, p.Phone)
		}},
		{ProbeNamePrefix, allowPrefix && p.NormalizedName != "" && !hasContact(p), func() (*production.Person, error) {
			return tx.PersonByNamePrefix(ctx, p.NormalizedName)
		}},
	}
	for _, s := range steps {
		if !s.ok {
			continue
		}
		found, err := s.find()
		if err != nil {
			return nil, ProbeNone, err
		}
		if found != nil {
			return found, s.probe, nil
		}
	}
	return nil, ProbeNone, nil
}

// resolveOwner finds the production person owning a staged document: the
// contact probes first, then the exact name, then the name prefix. It never
// creates anything.
func resolveOwner(ctx context.Context, tx *production.Tx, owner production.Person) (*production.Person, Probe, error) {
	found, probe, err := resolve(ctx, tx, owner, false)
	if err != nil || found != nil {
		return found, probe, err
	}
	if owner.NormalizedName == "" {
		return nil, ProbeNone, nil
	}
	found, err = tx.PersonByName(ctx, owner.NormalizedName)
	if err != nil || found != nil {
		return found, ProbeName, err
	}
	found, err = tx.PersonByNamePrefix(ctx, owner.NormalizedName)
	if err != nil || found != nil {
		return found, ProbeNamePrefix, err
	}
	return nil, ProbeNone, nil
}

func hasContact(p production.Person) bool {
	return p.NationalID != "" || p.Phone != "" || (p.Email != "" && !identity.IsPlaceholderEmail(p.Email))
}

// Package nonperson decides whether a folder or row name denotes an
// administrative artifact (a program, a year, an agency, a template folder)
// rather than a person.
//
// The same Filter serves two call sites. The loader and the migration engine
// consult it proactively so artifacts never become identities, and the
// sanitize workflow runs it retrospectively over the staging store. Rules are
// applied in a fixed order (blacklist, patterns, shape heuristics) against
// the uppercased name; a whitelist of identity ids overrides all of them.
//
// Operators extend the built-in lists with a YAML file:
//
//	blacklist:
//	  - SEGUIMIENTO
//	whitelist:
//	  - 5b0c3f2e-8d0e-4a55-9a8f-1b7f2f0c6a11
package nonperson

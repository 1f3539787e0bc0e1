// Package propellant defines the chemical compounds a tank can hold.
//
// A Compound is immutable reference data tagged as either a Fuel or an
// Oxidizer. Engines use the tag to check that a tank attached to a port
// holds the right kind of propellant; nothing else about a compound
// changes behavior.
//
// Units:
//   - Density: kg/mL
//   - Melting and boiling points: °C (NaN when unknown)
//
// The package-level catalog is process-wide and read-only. Look entries up
// by name with Lookup; names are matched case-insensitively after Unicode
// NFC normalization, so "RP-1" and "rp-1" resolve to the same compound.
package propellant

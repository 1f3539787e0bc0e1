package propellant

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Catalog names. Other layers reference compounds by these identifiers.
const (
	NameKerosene            = "kerosene"
	NameRP1                 = "RP-1"
	NameHydrazine           = "hydrazine"
	NameMonomethylhydrazine = "monomethylhydrazine"
	NameUDMH                = "UDMH"
	NameAerozine50          = "Aerozine 50"
	NameLiquidHydrogen      = "liquid hydrogen"
	NameLiquidOxygen        = "liquid oxygen"
	NameNitrogenTetroxide   = "N2O4"
)

var unknown = math.NaN()

// Densities are at or near the normal boiling point for cryogens, 20 °C otherwise.
var (
	Kerosene            = mustCompound(NameKerosene, Fuel, 0.000810, -40, 175)
	RP1                 = mustCompound(NameRP1, Fuel, 0.000820, unknown, 177)
	Hydrazine           = mustCompound(NameHydrazine, Fuel, 0.001021, 2.0, 114)
	Monomethylhydrazine = mustCompound(NameMonomethylhydrazine, Fuel, 0.000875, -52, 87.5)
	UDMH                = mustCompound(NameUDMH, Fuel, 0.000791, -57, 63.9)
	Aerozine50          = mustCompound(NameAerozine50, Fuel, 0.000903, -7, 70)
	LiquidHydrogen      = mustCompound(NameLiquidHydrogen, Fuel, 0.00007085, -259.14, -252.87)

	LiquidOxygen      = mustCompound(NameLiquidOxygen, Oxidizer, 0.001141, -218.79, -182.96)
	NitrogenTetroxide = mustCompound(NameNitrogenTetroxide, Oxidizer, 0.001450, -11.2, 21.69)
)

// catalog is keyed by normalized name. Built once, never written after init.
var catalog = func() map[string]Compound {
	all := []Compound{
		Kerosene, RP1, Hydrazine, Monomethylhydrazine, UDMH, Aerozine50, LiquidHydrogen,
		LiquidOxygen, NitrogenTetroxide,
	}
	m := make(map[string]Compound, len(all))
	for _, c := range all {
		m[normalize(c.Name())] = c
	}
	return m
}()

// aliases map common alternate spellings onto catalog names.
var aliases = map[string]string{
	"lox":                  NameLiquidOxygen,
	"lh2":                  NameLiquidHydrogen,
	"rp1":                  NameRP1,
	"mmh":                  NameMonomethylhydrazine,
	"a-50":                 NameAerozine50,
	"nitrogen tetroxide":   NameNitrogenTetroxide,
	"dinitrogen tetroxide": NameNitrogenTetroxide,
}

// Lookup returns the catalog compound with the given name.
func Lookup(name string) (Compound, bool) {
	key := normalize(name)
	if c, ok := catalog[key]; ok {
		return c, true
	}
	if canonical, ok := aliases[key]; ok {
		c, ok := catalog[normalize(canonical)]
		return c, ok
	}
	return Compound{}, false
}

// Names returns every catalog name sorted alphabetically (case-insensitive).
func Names() []string {
	names := make([]string, 0, len(catalog))
	for _, c := range catalog {
		names = append(names, c.Name())
	}
	sort.Slice(names, func(i, j int) bool {
		return normalize(names[i]) < normalize(names[j])
	})
	return names
}

// Fuels returns the fuel entries of the catalog in name order.
func Fuels() []Compound { return byKind(Fuel) }

// Oxidizers returns the oxidizer entries of the catalog in name order.
func Oxidizers() []Compound { return byKind(Oxidizer) }

func byKind(k Kind) []Compound {
	var out []Compound
	for _, name := range Names() {
		c := catalog[normalize(name)]
		if c.Kind() == k {
			out = append(out, c)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

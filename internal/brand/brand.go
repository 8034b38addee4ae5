// Package brand maps PNP manufacturer codes to display manufacturer names.
//
// Every monitor reports a three-letter PNP ID (assigned by Microsoft/UEFI)
// as part of its EDID and WMI instance path. The table below covers the
// manufacturers commonly seen in the wild; unknown codes are reported as
// ErrUnknownBrand and callers are expected to fall back to the raw code.
package brand

import (
	"errors"
	"strings"
)

// ErrUnknownBrand is returned when neither the code nor the name is known.
var ErrUnknownBrand = errors.New("brand: unknown manufacturer code or name")

// CodeLength is the fixed length of a PNP manufacturer ID.
const CodeLength = 3

// names maps PNP IDs to human-readable manufacturer names.
var names = map[string]string{
	"ACI": "Asus",
	"ACR": "Acer",
	"AOC": "AOC",
	"APP": "Apple",
	"AUS": "Asus",
	"BNQ": "BenQ",
	"CMN": "Chimei Innolux",
	"DEL": "Dell",
	"ENC": "Eizo",
	"EIZ": "Eizo",
	"FUS": "Fujitsu Siemens",
	"GSM": "LG",
	"HPN": "HP",
	"HWP": "HP",
	"IVM": "Iiyama",
	"LEN": "Lenovo",
	"LGD": "LG Display",
	"MEI": "Panasonic",
	"MSI": "MSI",
	"NEC": "NEC",
	"PHL": "Philips",
	"SAM": "Samsung",
	"SEC": "Samsung",
	"SHP": "Sharp",
	"SNY": "Sony",
	"TOS": "Toshiba",
	"VSC": "ViewSonic",
}

// Lookup resolves a PNP manufacturer code or a manufacturer name to the
// canonical (code, name) pair.
//
// Codes are matched case-insensitively on exact three-letter IDs; anything
// longer is matched case-insensitively against the known names. Several
// codes can map to the same manufacturer (e.g. HPN and HWP are both HP);
// name lookups return the first code in lexical order for determinism.
//
// Returns ErrUnknownBrand when no match exists. Callers treat this as
// "manufacturer unknown", never as a fatal condition.
func Lookup(codeOrName string) (code, name string, err error) {
	if len(codeOrName) == CodeLength {
		c := strings.ToUpper(codeOrName)
		if n, ok := names[c]; ok {
			return c, n, nil
		}
	}

	// Name lookup: scan the table for a case-insensitive match, preferring
	// the lexically smallest code so repeated calls agree.
	var best string
	for c, n := range names {
		if strings.EqualFold(n, codeOrName) && (best == "" || c < best) {
			best = c
		}
	}
	if best != "" {
		return best, names[best], nil
	}

	return "", "", ErrUnknownBrand
}

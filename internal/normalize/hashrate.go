// Package normalize bridges wire-format numeric encodings into the canonical
// records the rest of the pipeline consumes.
package normalize

import "github.com/goodnatureofminers/mining-analytics-backend/pkg/safe"

// HashRate is a network hash rate in hashes per second. APIs transmit it as an
// arbitrarily large integer, often string-encoded; float64 keeps the full
// magnitude at the precision the pipeline needs.
type HashRate float64

// ParseHashRate coerces a raw wire value (string, number or json.Number) into
// a HashRate, treating unparseable input as zero.
func ParseHashRate(v any) HashRate {
	return HashRate(safe.Float64(v, 0))
}

// KHS returns the hash rate in kilohashes per second.
func (h HashRate) KHS() float64 { return float64(h) / 1e3 }

// MHS returns the hash rate in megahashes per second.
func (h HashRate) MHS() float64 { return float64(h) / 1e6 }

// GHS returns the hash rate in gigahashes per second.
func (h HashRate) GHS() float64 { return float64(h) / 1e9 }

// THS returns the hash rate in terahashes per second.
func (h HashRate) THS() float64 { return float64(h) / 1e12 }

// PHS returns the hash rate in petahashes per second.
func (h HashRate) PHS() float64 { return float64(h) / 1e15 }

// EHS returns the hash rate in exahashes per second, the canonical storage unit.
func (h HashRate) EHS() float64 { return float64(h) / 1e18 }

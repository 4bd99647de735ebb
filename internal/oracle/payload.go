package oracle

import (
	"encoding/hex"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/text/language"

	"github.com/tbourn/rentald/internal/domain"
)

// RequestData is the argument map the oracle job reads.
type RequestData struct {
	Date    string `cbor:"date"              json:"date"`
	Region  string `cbor:"region"            json:"region"`
	Country string `cbor:"country,omitempty" json:"country,omitempty"`
}

var encMode cbor.EncMode

func init() {
	m, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = m
}

// NewRequestData builds the job arguments for a date and region.
func NewRequestData(date, region domain.Bytes32) RequestData {
	return RequestData{
		Date:    date.Hex(),
		Region:  region.String(),
		Country: Country(region.String()),
	}
}

// Encode returns the canonical CBOR encoding of d.
func (d RequestData) Encode() ([]byte, error) { return encMode.Marshal(d) }

// Country extracts the ISO 3166-1 country from a region such as "AU-QLD".
// Unknown or malformed regions yield "".
func Country(region string) string {
	code, _, _ := strings.Cut(region, "-")
	r, err := language.ParseRegion(code)
	if err != nil || !r.IsCountry() {
		return ""
	}
	return r.String()
}

// HexData is the 0x-hex form of an encoded payload.
func HexData(b []byte) string { return "0x" + hex.EncodeToString(b) }

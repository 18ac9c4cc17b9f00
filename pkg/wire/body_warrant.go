package wire

import (
	"fmt"

	"twse-md-parser/pkg/record"
)

// Format-14 field widths (§4.6, §9). These are externally documented wire
// constants, not values this decoder infers — kept as named constants so a
// future revision of the external spec only touches this block.
const (
	WarrantBriefNameWidth       = 16
	WarrantSeparatorWidth       = 1
	WarrantUnderlyingAssetWidth = 6
	WarrantExpirationDateWidth  = 7
	WarrantTypeDWidth           = 1
	WarrantTypeEWidth           = 1
	WarrantTypeFWidth           = 1
	WarrantReservedWidth        = 1

	WarrantBodyWidth = WarrantBriefNameWidth + WarrantSeparatorWidth + WarrantUnderlyingAssetWidth +
		WarrantExpirationDateWidth + WarrantTypeDWidth + WarrantTypeEWidth + WarrantTypeFWidth + WarrantReservedWidth
)

// DecodeWarrantDescriptor decodes a format 14 body per §4.6. Every field
// is copied as an opaque byte slice; the core performs no character-set
// conversion, including for the trailing 0x00 padding bytes a consumer may
// want to trim.
func DecodeWarrantDescriptor(header record.Header, body []byte) (*record.WarrantDescriptor, error) {
	if len(body) != WarrantBodyWidth {
		return nil, fmt.Errorf("wire: warrant body length %d does not match expected %d", len(body), WarrantBodyWidth)
	}

	var wd record.WarrantDescriptor
	wd.Header = header

	offset := 0
	take := func(n int) []byte {
		field := make([]byte, n)
		copy(field, body[offset:offset+n])
		offset += n
		return field
	}

	wd.BriefName = take(WarrantBriefNameWidth)
	wd.Separator = take(WarrantSeparatorWidth)
	wd.UnderlyingAsset = take(WarrantUnderlyingAssetWidth)
	wd.ExpirationDate = take(WarrantExpirationDateWidth)
	wd.WarrantTypeD = take(WarrantTypeDWidth)
	wd.WarrantTypeE = take(WarrantTypeEWidth)
	wd.WarrantTypeF = take(WarrantTypeFWidth)
	wd.Reserved = take(WarrantReservedWidth)

	return &wd, nil
}

// EncodeWarrantDescriptor is the inverse of DecodeWarrantDescriptor.
func EncodeWarrantDescriptor(wd *record.WarrantDescriptor) ([]byte, error) {
	fields := [][]byte{
		wd.BriefName, wd.Separator, wd.UnderlyingAsset, wd.ExpirationDate,
		wd.WarrantTypeD, wd.WarrantTypeE, wd.WarrantTypeF, wd.Reserved,
	}
	widths := []int{
		WarrantBriefNameWidth, WarrantSeparatorWidth, WarrantUnderlyingAssetWidth, WarrantExpirationDateWidth,
		WarrantTypeDWidth, WarrantTypeEWidth, WarrantTypeFWidth, WarrantReservedWidth,
	}

	body := make([]byte, 0, WarrantBodyWidth)
	for i, f := range fields {
		if len(f) != widths[i] {
			return nil, fmt.Errorf("wire: warrant field %d has length %d, want %d", i, len(f), widths[i])
		}
		body = append(body, f...)
	}
	return body, nil
}

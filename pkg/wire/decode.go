package wire

import (
	"fmt"

	"twse-md-parser/pkg/record"
)

// ErrFormatDropped is returned by Dispatch when a datagram's format code
// is outside the caller's allow-set, or is unrecognized and deliverUnknown
// is false. It is not a malformed-packet error; the Parser counts it
// separately (UnknownFormat) and never treats it as a transport failure.
var ErrFormatDropped = fmt.Errorf("wire: format dropped by admission filter")

// DefaultAllowedFormats returns an allow-set of the format codes that have
// typed decoders: the three trade-snapshot format codes plus the warrant
// descriptor. Passed to Dispatch, it drops every other code regardless of
// deliverUnknown.
func DefaultAllowedFormats() map[byte]bool {
	return map[byte]bool{
		record.FormatTradeSnapshot06: true,
		record.FormatTradeSnapshot17: true,
		record.FormatTradeSnapshot23: true,
		record.FormatWarrant14:       true,
	}
}

// Dispatch implements the admission filter (§4.7) and per-format body
// decode dispatch (§4.5, §4.6) for one validated Frame.
//
// allowed may be nil, meaning "no restriction beyond the built-in format
// dispatch" — formats 06/17/23/14 decode to their typed records and every
// other code is subject to deliverUnknown. When allowed is non-nil, any
// format code absent from it is dropped (ErrFormatDropped) before body
// decoding, matching §4.7's "when set" branch.
func Dispatch(f *Frame, allowed map[byte]bool, deliverUnknown bool) (record.Record, error) {
	code := f.Header.FormatCode
	if allowed != nil && !allowed[code] {
		return nil, ErrFormatDropped
	}

	switch code {
	case record.FormatTradeSnapshot06, record.FormatTradeSnapshot17, record.FormatTradeSnapshot23:
		return DecodeTradeSnapshot(f.Header, f.Body())
	case record.FormatWarrant14:
		return DecodeWarrantDescriptor(f.Header, f.Body())
	default:
		if !deliverUnknown {
			return nil, ErrFormatDropped
		}
		payload := make([]byte, len(f.Body()))
		copy(payload, f.Body())
		return &record.UnknownRecord{Header: f.Header, FormatCode: code, RawPayload: payload}, nil
	}
}

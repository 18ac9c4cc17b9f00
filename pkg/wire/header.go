package wire

import (
	"fmt"

	"twse-md-parser/pkg/bcd"
	"twse-md-parser/pkg/record"
)

// HeaderSize is the fixed nine-byte header layout (§3.2, §6.1).
const HeaderSize = 9

// DecodeHeader parses the fixed nine-byte header at the front of a
// datagram's header region. b must be exactly HeaderSize bytes. No
// branching on business_type/format_code happens here — that's the
// admission filter's job (Dispatch).
func DecodeHeader(b []byte) (record.Header, error) {
	if len(b) != HeaderSize {
		return record.Header{}, fmt.Errorf("wire: header must be %d bytes, got %d", HeaderSize, len(b))
	}
	length, err := bcd.Decode(b[0:2])
	if err != nil {
		return record.Header{}, fmt.Errorf("wire: header.message_length: %w", err)
	}
	transmission, err := bcd.Decode(b[5:9])
	if err != nil {
		return record.Header{}, fmt.Errorf("wire: header.transmission_number: %w", err)
	}
	return record.Header{
		MessageLength:      length,
		BusinessType:       b[2],
		FormatCode:         b[3],
		FormatVersion:      b[4],
		TransmissionNumber: transmission,
	}, nil
}

// EncodeHeader is the inverse of DecodeHeader, used by the canonical test
// encoder and cmd/twse-mocker.
func EncodeHeader(h record.Header) ([]byte, error) {
	lengthBCD, err := bcd.Encode(h.MessageLength, 2)
	if err != nil {
		return nil, fmt.Errorf("wire: encode message_length: %w", err)
	}
	transmissionBCD, err := bcd.Encode(h.TransmissionNumber, 4)
	if err != nil {
		return nil, fmt.Errorf("wire: encode transmission_number: %w", err)
	}
	out := make([]byte, 0, HeaderSize)
	out = append(out, lengthBCD...)
	out = append(out, h.BusinessType, h.FormatCode, h.FormatVersion)
	out = append(out, transmissionBCD...)
	return out, nil
}

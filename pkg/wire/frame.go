package wire

import (
	"fmt"

	"twse-md-parser/pkg/record"
)

const (
	escByte = 0x1B

	// MinDatagramLen is ESC(1) + header(9) + body(0) + checksum(1) + terminal(2).
	MinDatagramLen = 1 + HeaderSize + 0 + 1 + 2
	// MaxDatagramLen is the largest datagram the validator accepts (§4.2 step 1).
	MaxDatagramLen = 2048
)

var terminal = [2]byte{0x0D, 0x0A}

// FailureKind enumerates the per-datagram validation failures counted by
// the Parser (§4.2, §7). None of these terminate the receive loop.
type FailureKind int

const (
	TooShort FailureKind = iota
	BadFraming
	BadChecksum
	LengthMismatch
)

func (k FailureKind) String() string {
	switch k {
	case TooShort:
		return "TooShort"
	case BadFraming:
		return "BadFraming"
	case BadChecksum:
		return "BadChecksum"
	case LengthMismatch:
		return "LengthMismatch"
	default:
		return "Unknown"
	}
}

// ValidationError reports why Validate rejected a datagram.
type ValidationError struct {
	Kind FailureKind
}

func (e *ValidationError) Error() string {
	return "wire: " + e.Kind.String()
}

// ChecksumMode resolves the Open Question in §9 over whether the XOR
// checksum domain includes the leading ESC byte. The canonical sender XORs
// header+body only; some tooling in the source repository's own mocker
// also XORs in ESC.
type ChecksumMode int

const (
	// ChecksumHeaderBody is the reference policy: XOR over the nine header
	// bytes plus the body, excluding ESC, checksum, and terminal.
	ChecksumHeaderBody ChecksumMode = iota
	// ChecksumLenient tries ChecksumHeaderBody first and, on mismatch,
	// retries including the ESC byte in the XOR domain before failing.
	ChecksumLenient
)

// Frame is the validated view of one datagram: offsets into the original
// buffer plus its decoded header, per §3.1 and §4.2 step 5.
type Frame struct {
	Raw       []byte
	Header    record.Header
	BodyStart int // index into Raw of the first body byte
	BodyEnd   int // index into Raw one past the last body byte (== checksum index)
}

// Body returns the datagram's body region.
func (f *Frame) Body() []byte {
	return f.Raw[f.BodyStart:f.BodyEnd]
}

// Checksum returns the checksum byte actually carried on the wire.
func (f *Frame) Checksum() byte {
	return f.Raw[f.BodyEnd]
}

func xor(b []byte) byte {
	var c byte
	for _, x := range b {
		c ^= x
	}
	return c
}

// Validate frames, checksums, and length-checks a raw datagram per §4.2,
// then decodes its header. It never allocates more than the Frame wrapper;
// Raw aliases the caller's buffer.
func Validate(raw []byte, mode ChecksumMode) (*Frame, error) {
	if len(raw) < MinDatagramLen {
		return nil, &ValidationError{Kind: TooShort}
	}
	if len(raw) > MaxDatagramLen {
		return nil, &ValidationError{Kind: BadFraming}
	}
	if raw[0] != escByte || raw[len(raw)-2] != terminal[0] || raw[len(raw)-1] != terminal[1] {
		return nil, &ValidationError{Kind: BadFraming}
	}

	checksumIdx := len(raw) - 3
	headerStart := 1
	got := raw[checksumIdx]

	want := xor(raw[headerStart:checksumIdx])
	if want != got {
		if mode != ChecksumLenient {
			return nil, &ValidationError{Kind: BadChecksum}
		}
		// Lenient fallback: some senders include ESC in the XOR domain.
		wantWithESC := xor(raw[0:checksumIdx])
		if wantWithESC != got {
			return nil, &ValidationError{Kind: BadChecksum}
		}
	}

	header, err := DecodeHeader(raw[headerStart : headerStart+HeaderSize])
	if err != nil {
		return nil, fmt.Errorf("wire: %w", err)
	}

	declaredLength := uint64(checksumIdx - headerStart)
	if header.MessageLength != declaredLength {
		return nil, &ValidationError{Kind: LengthMismatch}
	}

	return &Frame{
		Raw:       raw,
		Header:    header,
		BodyStart: headerStart + HeaderSize,
		BodyEnd:   checksumIdx,
	}, nil
}

// Encode assembles a complete datagram from a header and body, computing
// the checksum under the reference HEADER⊕BODY domain. It is the
// canonical encoder referenced by the round-trip property in spec §8, and
// is used by cmd/twse-mocker and by this package's own tests.
func Encode(h record.Header, body []byte) ([]byte, error) {
	h.MessageLength = uint64(HeaderSize + len(body))
	headerBytes, err := EncodeHeader(h)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+HeaderSize+len(body)+1+2)
	out = append(out, escByte)
	out = append(out, headerBytes...)
	out = append(out, body...)
	checksum := xor(out[1:])
	out = append(out, checksum)
	out = append(out, terminal[0], terminal[1])
	return out, nil
}

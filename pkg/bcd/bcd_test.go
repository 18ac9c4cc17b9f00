package bcd

import "testing"

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want uint64
	}{
		{"single byte", []byte{0x45}, 45},
		{"two bytes", []byte{0x01, 0x13}, 113},
		{"transmission number", []byte{0x00, 0x00, 0x45, 0x67}, 4567},
		{"six byte volume", []byte{0x00, 0x00, 0x00, 0x01, 0x64, 0x23}, 16423},
		{"all zero", []byte{0x00}, 0},
		{"max single byte", []byte{0x99}, 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if err != nil {
				t.Fatalf("Decode(%x): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Decode(%x) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeMalformedNibble(t *testing.T) {
	tests := [][]byte{
		{0xA5},
		{0x5A},
		{0xFF},
		{0x12, 0xBC},
	}
	for _, in := range tests {
		_, err := Decode(in)
		if err == nil {
			t.Errorf("Decode(%x): expected error, got nil", in)
		}
		var bcdErr *Error
		if !asError(err, &bcdErr) {
			t.Errorf("Decode(%x): expected *Error, got %T", in, err)
		}
	}
}

func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if ok {
		*target = e
	}
	return ok
}

func TestDecodeLengthBounds(t *testing.T) {
	if _, err := Decode(nil); err == nil {
		t.Error("Decode(nil): expected error")
	}
	if _, err := Decode(make([]byte, 7)); err == nil {
		t.Error("Decode(7 bytes): expected error")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		v uint64
		n int
	}{
		{0, 1}, {99, 1}, {113, 2}, {4567, 4}, {16423, 4}, {16423, 6}, {9999999999, 5},
	}
	for _, tt := range tests {
		b, err := Encode(tt.v, tt.n)
		if err != nil {
			t.Fatalf("Encode(%d, %d): %v", tt.v, tt.n, err)
		}
		if len(b) != tt.n {
			t.Fatalf("Encode(%d, %d): len = %d, want %d", tt.v, tt.n, len(b), tt.n)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode(%x): %v", b, err)
		}
		if got != tt.v {
			t.Errorf("round trip %d -> %x -> %d", tt.v, b, got)
		}
	}
}

func TestEncodeOverflow(t *testing.T) {
	if _, err := Encode(100, 1); err == nil {
		t.Error("Encode(100, 1): expected overflow error")
	}
	if _, err := Encode(10000000000, 5); err == nil {
		t.Error("Encode(1e10, 5): expected overflow error")
	}
}

func TestPriceRoundTrip(t *testing.T) {
	tests := []struct {
		wire []byte
		want Price
	}{
		{[]byte{0x00, 0x00, 0x99, 0x50, 0x00}, 995000},
		{[]byte{0x00, 0x01, 0x00, 0x00, 0x00}, 1000000},
		{[]byte{0x00, 0x01, 0x01, 0x50, 0x00}, 1015000},
	}
	for _, tt := range tests {
		p, err := DecodePrice(tt.wire)
		if err != nil {
			t.Fatalf("DecodePrice(%x): %v", tt.wire, err)
		}
		if p != tt.want {
			t.Errorf("DecodePrice(%x) = %d, want %d", tt.wire, p, tt.want)
		}
		if got, want := p.Float64(), float64(tt.want)/10000; got != want {
			t.Errorf("Price(%d).Float64() = %v, want %v", p, got, want)
		}

		encoded, err := EncodePrice(p)
		if err != nil {
			t.Fatalf("EncodePrice(%d): %v", p, err)
		}
		if string(encoded) != string(tt.wire) {
			t.Errorf("EncodePrice(%d) = %x, want %x", p, encoded, tt.wire)
		}
	}
}

func TestDecodePriceWrongLength(t *testing.T) {
	if _, err := DecodePrice([]byte{0x00, 0x00}); err == nil {
		t.Error("DecodePrice(2 bytes): expected error")
	}
}

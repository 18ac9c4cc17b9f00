package wire

import (
	"bytes"
	"testing"

	"twse-md-parser/pkg/record"
)

func sampleWarrantDescriptor() *record.WarrantDescriptor {
	pad := func(s string, n int) []byte {
		b := make([]byte, n)
		copy(b, s)
		return b
	}
	return &record.WarrantDescriptor{
		Header:          testHeader(record.FormatWarrant14),
		BriefName:       pad("元大台積電購01", WarrantBriefNameWidth),
		Separator:       []byte{'-'},
		UnderlyingAsset: pad("2330", WarrantUnderlyingAssetWidth),
		ExpirationDate:  pad("1150630", WarrantExpirationDateWidth),
		WarrantTypeD:    []byte{'C'},
		WarrantTypeE:    []byte{'0'},
		WarrantTypeF:    []byte{'0'},
		Reserved:        []byte{0x00},
	}
}

func TestWarrantDescriptorRoundTrip(t *testing.T) {
	want := sampleWarrantDescriptor()
	body, err := EncodeWarrantDescriptor(want)
	if err != nil {
		t.Fatalf("EncodeWarrantDescriptor: %v", err)
	}
	if len(body) != WarrantBodyWidth {
		t.Fatalf("len(body) = %d, want %d", len(body), WarrantBodyWidth)
	}

	got, err := DecodeWarrantDescriptor(want.Header, body)
	if err != nil {
		t.Fatalf("DecodeWarrantDescriptor: %v", err)
	}
	if !bytes.Equal(got.BriefName, want.BriefName) {
		t.Errorf("BriefName = %q, want %q", got.BriefName, want.BriefName)
	}
	if !bytes.Equal(got.Separator, want.Separator) {
		t.Errorf("Separator = %q, want %q", got.Separator, want.Separator)
	}
	if !bytes.Equal(got.UnderlyingAsset, want.UnderlyingAsset) {
		t.Errorf("UnderlyingAsset = %q, want %q", got.UnderlyingAsset, want.UnderlyingAsset)
	}
	if !bytes.Equal(got.ExpirationDate, want.ExpirationDate) {
		t.Errorf("ExpirationDate = %q, want %q", got.ExpirationDate, want.ExpirationDate)
	}
	if !bytes.Equal(got.WarrantTypeD, want.WarrantTypeD) || !bytes.Equal(got.WarrantTypeE, want.WarrantTypeE) || !bytes.Equal(got.WarrantTypeF, want.WarrantTypeF) {
		t.Errorf("type fields = %q/%q/%q, want %q/%q/%q", got.WarrantTypeD, got.WarrantTypeE, got.WarrantTypeF, want.WarrantTypeD, want.WarrantTypeE, want.WarrantTypeF)
	}
	if !bytes.Equal(got.Reserved, want.Reserved) {
		t.Errorf("Reserved = %q, want %q (null padding must survive verbatim)", got.Reserved, want.Reserved)
	}
}

func TestDecodeWarrantDescriptorWrongLength(t *testing.T) {
	h := testHeader(record.FormatWarrant14)
	if _, err := DecodeWarrantDescriptor(h, make([]byte, WarrantBodyWidth-1)); err == nil {
		t.Error("DecodeWarrantDescriptor(short body): expected error")
	}
	if _, err := DecodeWarrantDescriptor(h, make([]byte, WarrantBodyWidth+1)); err == nil {
		t.Error("DecodeWarrantDescriptor(long body): expected error")
	}
}

func TestEncodeWarrantDescriptorWrongFieldWidth(t *testing.T) {
	wd := sampleWarrantDescriptor()
	wd.UnderlyingAsset = wd.UnderlyingAsset[:WarrantUnderlyingAssetWidth-1]
	if _, err := EncodeWarrantDescriptor(wd); err == nil {
		t.Error("EncodeWarrantDescriptor(short field): expected error")
	}
}

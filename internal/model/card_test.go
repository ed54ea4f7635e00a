package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbologyTable(t *testing.T) {
	cases := map[string]string{
		"EAN_13":   "EAN13",
		"EAN_8":    "EAN8",
		"CODE_128": "CODE128",
		"CODE_39":  "CODE39",
		"ITF":      "ITF",
		"UPC_A":    "UPC",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeSymbology(in, "ABC"), in)
	}
}

func TestNormalizeSymbologyFallback(t *testing.T) {
	assert.Equal(t, "EAN13", NormalizeSymbology("", "4006381333931"))
	assert.Equal(t, "EAN8", NormalizeSymbology("", "12345678"))
	assert.Equal(t, "CODE128", NormalizeSymbology("", "ABC-123"))
	assert.Equal(t, "CODE128", NormalizeSymbology("PDF_417", "123"))
	assert.Equal(t, "EAN13", NormalizeSymbology("QR_CODE", "4006381333931"))
	assert.Equal(t, "CODE128", NormalizeSymbology("", ""))
}

func TestClassifyPayload(t *testing.T) {
	assert.Equal(t, PayloadQR, ClassifyPayload("", "https://example.com/x"))
	assert.Equal(t, PayloadBarcode, ClassifyPayload("EAN_13", "5901234123457"))
	assert.Equal(t, PayloadQR, ClassifyPayload("QR_CODE", "5901234123457"))
	assert.Equal(t, PayloadBarcode, ClassifyPayload("", "  12345  "))
	assert.Equal(t, PayloadQR, ClassifyPayload("", ""))
}

func TestCardClassFollowsFormatEdits(t *testing.T) {
	c := Card{Value: "5901234123457", Format: "EAN_13"}
	assert.Equal(t, PayloadBarcode, c.Class())
	c.Format = "QR_CODE"
	assert.Equal(t, PayloadQR, c.Class())
}

func TestNewCardValidate(t *testing.T) {
	var ve *ValidationError

	err := NewCard{Nickname: "Test"}.Validate()
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "value", ve.Field)

	err = NewCard{Value: "123", Nickname: "  "}.Validate()
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "nickname", ve.Field)

	err = NewCard{Value: "123", Nickname: "Test", Country: "NLD"}.Validate()
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "country", ve.Field)

	assert.NoError(t, NewCard{Value: "123", Nickname: "Test"}.Validate())
	assert.NoError(t, NewCard{Value: "123", Nickname: "Test", Country: "de"}.Validate())
}

func TestCardsJSONRoundTrip(t *testing.T) {
	in := Cards{
		{ID: "a", Retailer: "Other", Country: "NL", Nickname: "AH", Value: "123", Format: "EAN_13", CreatedAt: 1, UpdatedAt: 2},
		{ID: "b", Retailer: "Lidl", Country: "DE", Nickname: "Plus", Value: "https://x/y?z=1", Format: "", CreatedAt: 1700000000000, UpdatedAt: 1700000000001},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Cards
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestCardsSortByUpdated(t *testing.T) {
	cs := Cards{
		{ID: "b", UpdatedAt: 100},
		{ID: "c", UpdatedAt: 300},
		{ID: "a", UpdatedAt: 100},
	}
	cs.SortByUpdated()
	assert.Equal(t, []string{"c", "a", "b"}, []string{cs[0].ID, cs[1].ID, cs[2].ID})
}

func TestFilterMatch(t *testing.T) {
	c := Card{Retailer: "Lidl", Country: "NL", Nickname: "Weekly shop"}
	assert.True(t, Filter{}.Match(c))
	assert.True(t, Filter{Retailer: "lidl", Country: "nl"}.Match(c))
	assert.True(t, Filter{Query: "weekly"}.Match(c))
	assert.False(t, Filter{Country: "DE"}.Match(c))
	assert.False(t, Filter{Query: "pharmacy"}.Match(c))
}

func TestRemoteErrorMatching(t *testing.T) {
	err := &RemoteError{Op: OpPush, Err: errors.New("boom")}
	assert.True(t, IsRemote(err, OpPush))
	assert.True(t, IsRemote(err, ""))
	assert.False(t, IsRemote(err, OpPull))
	assert.False(t, IsRemote(errors.New("other"), ""))
}

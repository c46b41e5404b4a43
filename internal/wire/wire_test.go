package wire

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStringListShapes(t *testing.T) {
	single := []string{"https://x.com"}
	pair := []string{"https://x.com", "https://y.com"}

	cases := []struct {
		name string
		in   any
		want []string
	}{
		{"bare string", "https://x.com", single},
		{"json array string", `["https://x.com"]`, single},
		{"native array", []any{"https://x.com"}, single},
		{"string slice", []string{" https://x.com "}, single},
		{"comma joined", "https://x.com, https://y.com", pair},
		{"json array pair", `["https://x.com", "https://y.com"]`, pair},
		{"native pair", []any{"https://x.com", " ", "https://y.com"}, pair},
		{"nil", nil, []string{}},
		{"blank", "   ", []string{}},
		{"empty json array", "[]", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StringList(tc.in))
		})
	}
}

func TestIDJSON(t *testing.T) {
	raw, err := json.Marshal(ID("65a1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"$oid":"65a1"}`, string(raw))

	var fromEnvelope, fromBare ID
	require.NoError(t, json.Unmarshal([]byte(`{"$oid":"65a1"}`), &fromEnvelope))
	require.NoError(t, json.Unmarshal([]byte(`"65a1"`), &fromBare))
	assert.Equal(t, ID("65a1"), fromEnvelope)
	assert.Equal(t, fromEnvelope, fromBare)
}

func TestDateJSONAndBSON(t *testing.T) {
	d := NewDate(time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC))

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"$date":"2025-03-01T10:30:00.000Z"}`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Equal(d.Time))

	doc, err := bson.Marshal(bson.M{"at": d})
	require.NoError(t, err)
	var decoded struct {
		At Date `bson:"at"`
	}
	require.NoError(t, bson.Unmarshal(doc, &decoded))
	assert.True(t, decoded.At.Equal(d.Time))
}

func TestZeroDateIsNull(t *testing.T) {
	raw, err := json.Marshal(struct {
		Expiry Date `json:"expiryDate"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"expiryDate":null}`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal([]byte("null"), &back))
	assert.True(t, back.IsZero())
}

func TestParseDateLayouts(t *testing.T) {
	for _, in := range []string{"2025-03-01", "2025-03-01T00:00:00Z", "2025-03-01T00:00:00"} {
		d, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, 2025, d.Year())
		assert.Equal(t, time.March, d.Month())
	}
	_, err := ParseDate("next tuesday")
	assert.Error(t, err)
}

type decodeTarget struct {
	Name      *string   `json:"name"`
	Links     *[]string `json:"links"`
	Email     []string  `json:"email"`
	Order     *int      `json:"order"`
	Latitude  *float64  `json:"latitude"`
	IsActive  *bool     `json:"isActive"`
	Start     *Date     `json:"startDate"`
	Vendor    *ID       `json:"vendorId"`
	Locations []struct {
		City     string   `json:"city"`
		Latitude *float64 `json:"latitude"`
	} `json:"locations"`
}

func TestDecodeFormShapes(t *testing.T) {
	var out decodeTarget
	err := Decode(map[string]any{
		"name":      "Vida",
		"links":     `["https://x.com"]`,
		"email":     []string{"a@x.com", "b@x.com"},
		"order":     "3",
		"latitude":  "",
		"isActive":  "false",
		"startDate": "2025-03-01",
		"vendorId":  map[string]any{"$oid": "v1"},
		"locations": `[{"city":"Manama","latitude":26.2}]`,
	}, &out)
	require.NoError(t, err)

	require.NotNil(t, out.Name)
	assert.Equal(t, "Vida", *out.Name)
	require.NotNil(t, out.Links)
	assert.Equal(t, []string{"https://x.com"}, *out.Links)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, out.Email)
	require.NotNil(t, out.Order)
	assert.Equal(t, 3, *out.Order)
	assert.Nil(t, out.Latitude)
	require.NotNil(t, out.IsActive)
	assert.False(t, *out.IsActive)
	require.NotNil(t, out.Start)
	assert.Equal(t, 1, out.Start.Day())
	require.NotNil(t, out.Vendor)
	assert.Equal(t, ID("v1"), *out.Vendor)
	require.Len(t, out.Locations, 1)
	assert.Equal(t, "Manama", out.Locations[0].City)
	require.NotNil(t, out.Locations[0].Latitude)
	assert.InDelta(t, 26.2, *out.Locations[0].Latitude, 1e-9)
}

func TestDecodeLeavesAbsentFieldsNil(t *testing.T) {
	var out decodeTarget
	require.NoError(t, Decode(map[string]any{"email": "a@x.com"}, &out))
	assert.Nil(t, out.Name)
	assert.Nil(t, out.Links)
	assert.Equal(t, []string{"a@x.com"}, out.Email)
}

func TestDecodeEmptyArrayPresent(t *testing.T) {
	var out decodeTarget
	require.NoError(t, Decode(map[string]any{"links": []any{}}, &out))
	require.NotNil(t, out.Links)
	assert.Empty(t, *out.Links)
}

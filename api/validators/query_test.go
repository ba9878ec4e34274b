package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/apexhq/shipdash-backend/pkg/errors"
)

func TestParseQueryInt(t *testing.T) {
	cases := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{name: "absent uses default", query: "", want: 5},
		{name: "valid value", query: "limit=10", want: 10},
		{name: "at bounds", query: "limit=100", want: 100},
		{name: "not numeric", query: "limit=ten", wantErr: true},
		{name: "below min", query: "limit=0", wantErr: true},
		{name: "above max", query: "limit=101", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/?"+tc.query, nil)
			got, err := ParseQueryInt(r, "limit", 5, 1, 100)
			if tc.wantErr {
				require.Error(t, err)
				typed := pkgerrors.As(err)
				require.NotNil(t, typed)
				require.Equal(t, pkgerrors.CodeValidation, typed.Code())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseQueryBool(t *testing.T) {
	r := httptest.NewRequest("GET", "/?cancelled=true", nil)
	value, present, err := ParseQueryBool(r, "cancelled")
	require.NoError(t, err)
	require.True(t, present)
	require.True(t, value)

	r = httptest.NewRequest("GET", "/", nil)
	_, present, err = ParseQueryBool(r, "cancelled")
	require.NoError(t, err)
	require.False(t, present)

	r = httptest.NewRequest("GET", "/?cancelled=maybe", nil)
	_, _, err = ParseQueryBool(r, "cancelled")
	require.Error(t, err)
}

func TestParseQueryEnum(t *testing.T) {
	allowed := []string{"product", "value"}

	r := httptest.NewRequest("GET", "/?sort=VALUE", nil)
	got, err := ParseQueryEnum(r, "sort", "product", allowed)
	require.NoError(t, err)
	require.Equal(t, "value", got)

	r = httptest.NewRequest("GET", "/", nil)
	got, err = ParseQueryEnum(r, "sort", "product", allowed)
	require.NoError(t, err)
	require.Equal(t, "product", got)

	r = httptest.NewRequest("GET", "/?sort=bogus", nil)
	_, err = ParseQueryEnum(r, "sort", "product", allowed)
	require.Error(t, err)
}

type decodeTarget struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	var dst decodeTarget

	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"ids":[1,2]}`))
	require.NoError(t, DecodeJSONBody(r, &dst))
	require.Equal(t, []int64{1, 2}, dst.IDs)

	r = httptest.NewRequest("POST", "/", nil)
	require.Error(t, DecodeJSONBody(r, &decodeTarget{}))

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"unknown":true}`))
	require.Error(t, DecodeJSONBody(r, &decodeTarget{}))
}

func TestDecodeJSONBodyEnforcesValidateTags(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "missing ids", body: `{}`},
		{name: "empty ids", body: `{"ids":[]}`},
		{name: "non-positive id", body: `{"ids":[1,0]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tc.body))
			err := DecodeJSONBody(r, &decodeTarget{})
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			require.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

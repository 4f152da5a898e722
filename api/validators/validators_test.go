package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/seemyown/StockController/pkg/errors"
)

type allocationBody struct {
	Items []struct {
		ItemID  int64 `json:"item_id" validate:"required"`
		Remains int   `json:"remains" validate:"gte=0"`
	} `json:"items" validate:"required,min=1,dive"`
}

func TestDecodeJSONBodyReportsNestedFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"items":[{"item_id":0,"remains":-1}]}`))
	var body allocationBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %T", typed.Details())
	}
	if details["items[0].item_id"] != "is required" {
		t.Fatalf("unexpected item_id detail %v", details)
	}
	if details["items[0].remains"] != "must be greater than or equal to 0" {
		t.Fatalf("unexpected remains detail %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"items":[],"extra":true}`))
	var body allocationBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?extend=true&bad=maybe", nil)
	if v, err := ParseQueryBool(req, "extend", false); err != nil || !v {
		t.Fatalf("expected true, got %v %v", v, err)
	}
	if v, err := ParseQueryBool(req, "missing", true); err != nil || !v {
		t.Fatalf("expected default, got %v %v", v, err)
	}
	if _, err := ParseQueryBool(req, "bad", false); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParsePathInt64(t *testing.T) {
	withParam := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("stockId", value)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	if v, err := ParsePathInt64(withParam("1000000000042"), "stockId"); err != nil || v != 1000000000042 {
		t.Fatalf("unexpected parse result %d %v", v, err)
	}
	for _, raw := range []string{"", "abc", "0", "-5"} {
		if _, err := ParsePathInt64(withParam(raw), "stockId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %q, got %v", raw, err)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"  paris  ", 3, "par"},
		{"new\x00  york", 0, "new york"},
		{"nizhny\tnovgorod", 0, "nizhny novgorod"},
		{"ab cd", 3, "ab"},
		{"Санкт-Петербург", 5, "Санкт"},
	}
	for _, tc := range cases {
		if got := SanitizeString(tc.in, tc.maxLen); got != tc.want {
			t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
		}
	}
}

package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

func TestJSONValidateFormatsCanonically(t *testing.T) {
	a := NewJSONAgent(&recordStoreFake{}, DefaultRules())

	got := a.Validate([]byte(`{"b":1,"a":{"y":true,"x":"<tag>"}}`))
	if !got.Valid {
		t.Fatalf("expected valid, got error %q", got.Error)
	}
	want := "{\n  \"a\": {\n    \"x\": \"<tag>\",\n    \"y\": true\n  },\n  \"b\": 1\n}"
	if got.Formatted != want {
		t.Fatalf("unexpected formatted output:\n%s", got.Formatted)
	}
	if got.Structure == nil || got.Structure.Kind != "object" || !reflect.DeepEqual(got.Structure.Keys, []string{"a", "b"}) {
		t.Fatalf("unexpected structure %+v", got.Structure)
	}
}

func TestJSONValidateRoundTrip(t *testing.T) {
	a := NewJSONAgent(&recordStoreFake{}, DefaultRules())
	inputs := []string{
		`{"id": 12345678901234567890, "price": 1.50, "tags": ["a", "b"], "meta": null}`,
		`[1, 2, {"k": "v"}]`,
		`"plain string"`,
	}

	for _, in := range inputs {
		got := a.Validate([]byte(in))
		if !got.Valid {
			t.Fatalf("input %s: expected valid, got %q", in, got.Error)
		}
		if !sameJSON(t, in, got.Formatted) {
			t.Fatalf("input %s: formatted value differs: %s", in, got.Formatted)
		}
	}
}

func TestJSONValidateKeepsLargeNumbers(t *testing.T) {
	a := NewJSONAgent(&recordStoreFake{}, DefaultRules())

	got := a.Validate([]byte(`{"id": 12345678901234567890}`))
	if !strings.Contains(got.Formatted, "12345678901234567890") {
		t.Fatalf("expected number preserved, got %s", got.Formatted)
	}
}

func TestJSONValidateMalformed(t *testing.T) {
	a := NewJSONAgent(&recordStoreFake{}, DefaultRules())

	got := a.Validate([]byte("{\n  \"a\": 1,\n  \"b\": \n}"))
	if got.Valid {
		t.Fatalf("expected invalid")
	}
	if got.ErrorLine != 4 || got.ErrorColumn != 1 {
		t.Fatalf("expected line 4 column 1, got %d:%d", got.ErrorLine, got.ErrorColumn)
	}
	if !strings.Contains(got.Error, "(line 4, column 1)") {
		t.Fatalf("expected location in error, got %q", got.Error)
	}
	if got.Formatted != "" || got.Structure != nil {
		t.Fatalf("invalid documents carry no formatted output")
	}
}

func TestJSONValidateTrailingData(t *testing.T) {
	a := NewJSONAgent(&recordStoreFake{}, DefaultRules())

	got := a.Validate([]byte(`{"a": 1} {"b": 2}`))
	if got.Valid {
		t.Fatalf("expected trailing data to be rejected")
	}
	if got.ErrorLine != 1 || got.ErrorColumn != 10 {
		t.Fatalf("expected line 1 column 10, got %d:%d", got.ErrorLine, got.ErrorColumn)
	}
}

func TestJSONValidateEmpty(t *testing.T) {
	a := NewJSONAgent(&recordStoreFake{}, DefaultRules())

	got := a.Validate([]byte("   "))
	if got.Valid || got.Error == "" {
		t.Fatalf("expected empty document error, got %+v", got)
	}
}

func TestJSONValidateMissingFields(t *testing.T) {
	rules := DefaultRules()
	rules.RequiredJSONFields = []string{"id", "customer"}
	a := NewJSONAgent(&recordStoreFake{}, rules)

	got := a.Validate([]byte(`{"id": 1}`))
	if !reflect.DeepEqual(got.MissingFields, []string{"customer"}) {
		t.Fatalf("unexpected missing fields %v", got.MissingFields)
	}

	got = a.Validate([]byte(`[1]`))
	if !reflect.DeepEqual(got.MissingFields, []string{"id", "customer"}) {
		t.Fatalf("unexpected missing fields for array %v", got.MissingFields)
	}
}

func TestJSONExtractAppendsRecordForInvalidInput(t *testing.T) {
	store := &recordStoreFake{}
	a := NewJSONAgent(store, DefaultRules())

	got, err := a.Extract(context.Background(), domain.NewDocument("x.json", []byte(`{oops}`)), "thread-9", "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Valid {
		t.Fatalf("expected invalid extraction")
	}
	if len(store.records) != 1 || store.records[0].Payload.JSON == nil {
		t.Fatalf("expected one json record, got %+v", store.records)
	}
	if store.records[0].SourceAgent != domain.SourceJSONAgent || store.records[0].StepType != domain.StepExtract {
		t.Fatalf("unexpected record %+v", store.records[0])
	}
}

func sameJSON(t *testing.T, a, b string) bool {
	t.Helper()
	decode := func(s string) any {
		dec := json.NewDecoder(bytes.NewReader([]byte(s)))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			t.Fatalf("decode %q: %v", s, err)
		}
		return v
	}
	return reflect.DeepEqual(decode(a), decode(b))
}

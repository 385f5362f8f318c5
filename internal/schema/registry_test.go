package schema

import (
	"errors"
	"testing"

	"github.com/fieldstack/docextract/constants"
	"github.com/fieldstack/docextract/internal/common"
)

func TestForKnownCategories(t *testing.T) {
	cases := []struct {
		docType  constants.DocumentType
		fields   []string
		sentinel string
	}{
		{constants.Invoice, []string{"client", "invoiceNumber", "totalAmount", "currency", "dueDate"}, "Not found"},
		{constants.Contract, []string{"clientName", "startDate", "endDate", "paymentTerms", "projectName"}, "Not specified"},
		{constants.Receipt, []string{"date", "customerEmail", "amount", "description"}, "Not found"},
	}

	for _, tc := range cases {
		s, err := For(tc.docType)
		if err != nil {
			t.Fatalf("For(%s): unexpected error: %v", tc.docType, err)
		}
		if s.PrimarySentinel != tc.sentinel {
			t.Errorf("For(%s): sentinel = %q, want %q", tc.docType, s.PrimarySentinel, tc.sentinel)
		}
		names := s.FieldNames()
		if len(names) != len(tc.fields) {
			t.Fatalf("For(%s): got %d fields, want %d", tc.docType, len(names), len(tc.fields))
		}
		for i, want := range tc.fields {
			if names[i] != want {
				t.Errorf("For(%s): field[%d] = %q, want %q", tc.docType, i, names[i], want)
			}
		}
	}
}

func TestForUnsupportedCategory(t *testing.T) {
	_, err := For(constants.DocumentType("memo"))
	if !errors.Is(err, common.ErrUnsupportedCategory) {
		t.Fatalf("expected ErrUnsupportedCategory, got %v", err)
	}
}

func TestJSONSchemaRequiresReservedKeys(t *testing.T) {
	s, err := For(constants.Invoice)
	if err != nil {
		t.Fatal(err)
	}
	js := s.JSONSchema()

	required, ok := js["required"].([]string)
	if !ok {
		t.Fatalf("required is %T, want []string", js["required"])
	}
	want := map[string]bool{}
	for _, n := range s.FieldNames() {
		want[n] = true
	}
	want[KeyDocumentType] = true
	want[KeyExtractedAt] = true

	if len(required) != len(want) {
		t.Fatalf("required has %d entries, want %d", len(required), len(want))
	}
	for _, n := range required {
		if !want[n] {
			t.Errorf("unexpected required entry %q", n)
		}
	}
}

func TestMatchesKind(t *testing.T) {
	cases := []struct {
		kind  FieldKind
		value string
		ok    bool
	}{
		{Email, "jane.doe@example.com", true},
		{Email, "not-an-email", false},
		{Email, "a@b", false},

		{Date, "2025-01-15", true},
		{Date, "1/15/2025", true},
		{Date, "1-15-2025", true},
		{Date, "January 15, 2025", true},
		{Date, "sometime soon", false},

		{CurrencyAmount, "$500.00", true},
		{CurrencyAmount, "1,234.56", true},
		{CurrencyAmount, "$10", true},
		{CurrencyAmount, "99.00 €", true},
		{CurrencyAmount, "five dollars", false},

		{IdentifierNumber, "INV-42", true},
		{IdentifierNumber, "X", false},

		{FreeText, "Acme Corp", true},
		{FreeText, "A", false},
	}

	for _, tc := range cases {
		ok, reason := MatchesKind(tc.kind, tc.value)
		if ok != tc.ok {
			t.Errorf("MatchesKind(%s, %q) = %v (%s), want %v", tc.kind, tc.value, ok, reason, tc.ok)
		}
		if !ok && reason == "" {
			t.Errorf("MatchesKind(%s, %q): expected a reason on mismatch", tc.kind, tc.value)
		}
	}
}

func TestPlaceholderSets(t *testing.T) {
	for _, v := range []string{"Not found", "UNKNOWN", " not specified "} {
		if !IsPlaceholder(v) {
			t.Errorf("IsPlaceholder(%q) = false, want true", v)
		}
	}
	if IsPlaceholder("n/a") {
		t.Error("IsPlaceholder should not include the extended set")
	}
	for _, v := range []string{"n/a", "NULL", "Unknown"} {
		if !IsPlaceholderExtended(v) {
			t.Errorf("IsPlaceholderExtended(%q) = false, want true", v)
		}
	}
	if IsPlaceholderExtended("Acme Corp") {
		t.Error("IsPlaceholderExtended rejected a real value")
	}
}

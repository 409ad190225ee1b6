package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/larder/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"IngredientID", id.NewIngredientID, "ing_"},
		{"LotID", id.NewLotID, "lot_"},
		{"MovementID", id.NewMovementID, "mvt_"},
		{"BatchID", id.NewBatchID, "batch_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"IngredientID", id.NewIngredientID, id.ParseIngredientID},
		{"LotID", id.NewLotID, id.ParseLotID},
		{"MovementID", id.NewMovementID, id.ParseMovementID},
		{"BatchID", id.NewBatchID, id.ParseBatchID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"ParseIngredientID rejects lot_", id.NewLotID().String(), id.ParseIngredientID},
		{"ParseLotID rejects mvt_", id.NewMovementID().String(), id.ParseLotID},
		{"ParseMovementID rejects batch_", id.NewBatchID().String(), id.ParseMovementID},
		{"ParseBatchID rejects ing_", id.NewIngredientID().String(), id.ParseBatchID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.parseFn(tt.input); err == nil {
				t.Errorf("expected error for cross-type parse of %q, got nil", tt.input)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type holder struct {
		Lot  id.ID `json:"lot"`
		Pool id.ID `json:"pool"`
	}

	original := holder{Lot: id.NewLotID()}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var restored holder
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if restored.Lot.String() != original.Lot.String() {
		t.Errorf("mismatch: %q != %q", restored.Lot, original.Lot)
	}
	if !restored.Pool.IsNil() {
		t.Error("expected nil pool ID after round-trip")
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewBatchID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if scanErr := scanned.Scan(val); scanErr != nil {
		t.Fatalf("Scan failed: %v", scanErr)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	var nilID id.ID
	val, err = nilID.Value()
	if err != nil {
		t.Fatalf("Value(nil) failed: %v", err)
	}
	if val != nil {
		t.Errorf("expected nil value for nil ID, got %v", val)
	}

	if err := scanned.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}

func TestCompare(t *testing.T) {
	a := id.MustParse("lot_01h2xcejqtf2nbrexx3vqjhp41")
	b := id.MustParse("lot_01h2xcejqtf2nbrexx3vqjhp42")

	if a.Compare(b) >= 0 {
		t.Errorf("expected %q < %q", a, b)
	}
	if b.Compare(a) <= 0 {
		t.Errorf("expected %q > %q", b, a)
	}
	if a.Compare(a) != 0 {
		t.Error("expected ID to compare equal to itself")
	}
	if id.Nil.Compare(a) >= 0 {
		t.Error("expected nil ID to sort first")
	}
}

func TestUniqueness(t *testing.T) {
	a := id.NewLotID()
	b := id.NewLotID()
	if a.String() == b.String() {
		t.Errorf("two consecutive NewLotID() calls returned the same ID: %q", a.String())
	}
}

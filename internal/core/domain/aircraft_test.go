package domain

import "testing"

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestMetadataRecord_MergeHigherWins(t *testing.T) {
	higher := MetadataRecord{Model: strPtr("737")}
	lower := MetadataRecord{Manufacturer: strPtr("Boeing"), Model: strPtr("747")}

	merged := higher.Merge(lower)

	if merged.Manufacturer == nil || *merged.Manufacturer != "Boeing" {
		t.Fatalf("expected manufacturer filled from lower, got %v", merged.Manufacturer)
	}
	if merged.Model == nil || *merged.Model != "737" {
		t.Fatalf("expected higher model to win, got %v", merged.Model)
	}
}

func TestMetadataRecord_MergeFillsAllNilFields(t *testing.T) {
	lower := MetadataRecord{
		Manufacturer: strPtr("Airbus"),
		Model:        strPtr("A320"),
		Registration: strPtr("G-EZTH"),
		Operator:     strPtr("easyJet"),
		SerialNumber: strPtr("3953"),
		AgeYears:     floatPtr(15),
	}

	merged := MetadataRecord{}.Merge(lower)
	if !merged.IsComplete() {
		t.Fatalf("expected complete record after merging into empty, got %+v", merged)
	}
}

func TestMetadataRecord_IsEmpty(t *testing.T) {
	if !(MetadataRecord{}).IsEmpty() {
		t.Fatal("zero record should be empty")
	}
	if (MetadataRecord{Registration: strPtr("G-EZTH")}).IsEmpty() {
		t.Fatal("record with a field should not be empty")
	}
}

func TestMetadataRecord_IsComplete(t *testing.T) {
	partial := MetadataRecord{Manufacturer: strPtr("Boeing"), Model: strPtr("747")}
	if partial.IsComplete() {
		t.Fatal("partial record should not be complete")
	}
}

func TestInferOnGround(t *testing.T) {
	cases := []struct {
		name     string
		altitude *float64
		want     bool
	}{
		{"no altitude", nil, true},
		{"on the apron", floatPtr(50), true},
		{"boundary", floatPtr(100), true},
		{"cruising", floatPtr(22750), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InferOnGround(tc.altitude); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

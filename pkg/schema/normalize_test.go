package schema

import (
	"reflect"
	"testing"
)

func TestNormalize_NilBecomesEmptyObject(t *testing.T) {
	got := Normalize(nil)
	if !IsEmpty(got) {
		t.Fatalf("Normalize(nil) = %+v, want empty object schema", got)
	}
	if got.Kind != KindObject {
		t.Errorf("Normalize(nil).Kind = %q, want %q", got.Kind, KindObject)
	}
}

func TestNormalize_RootNullBecomesEmptyObject(t *testing.T) {
	got := Normalize(&Schema{Kind: KindNull})
	if !IsEmpty(got) {
		t.Fatalf("Normalize(null schema) = %+v, want empty object schema", got)
	}
}

func TestNormalize_NestedNullKept(t *testing.T) {
	s := &Schema{Kind: KindUnion, AnyOf: []*Schema{
		{Kind: KindString},
		{Kind: KindNull},
	}}
	got := Normalize(s)
	if got.AnyOf[1].Kind != KindNull {
		t.Errorf("union null alternative rewritten to %q, want kept as null", got.AnyOf[1].Kind)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	schemas := []*Schema{
		nil,
		{Kind: KindNull},
		{Kind: KindString, Enum: []string{"a", "b"}},
		{Kind: KindArray, Items: &Schema{Kind: KindNull}},
		{
			Kind: KindObject,
			Properties: []Property{
				{Name: "pos", Schema: &Schema{Kind: KindObject, Properties: []Property{
					{Name: "x", Schema: &Schema{Kind: KindInteger, Minimum: numPtr(0)}},
				}, Required: []string{"x"}}},
				{Name: "label", Schema: nil},
			},
			Required: []string{"pos"},
			Closed:   true,
		},
		{Kind: KindUnion, AnyOf: []*Schema{{Kind: KindNumber}, {Kind: KindNull}}},
	}

	for i, s := range schemas {
		once := Normalize(s)
		twice := Normalize(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("schema %d: Normalize not idempotent:\nonce:  %+v\ntwice: %+v", i, once, twice)
		}
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := &Schema{Kind: KindObject, Properties: []Property{{Name: "a", Schema: nil}}}
	_ = Normalize(in)
	if in.Properties[0].Schema != nil {
		t.Error("Normalize mutated its input")
	}
}

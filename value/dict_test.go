package value_test

import (
	"testing"

	"code.hybscloud.com/glasrt/value"
)

func TestDictInsertLookupRemove(t *testing.T) {
	rec := value.Leaf
	rec = value.DictInsert(rec, value.LabelOf("name"), value.PushBinaryCopy([]byte("alice")))
	rec = value.DictInsert(rec, value.LabelOf("age"), value.IntToValue(30))

	got, ok := value.DictLookup(rec, value.LabelOf("name"))
	if !ok {
		t.Fatal("name should be present")
	}
	if !value.Equal(got, value.PushBinaryCopy([]byte("alice"))) {
		t.Fatalf("name=%v, want alice", got)
	}

	removed, rec2, ok := value.DictRemove(rec, value.LabelOf("age"))
	if !ok {
		t.Fatal("age should have been present to remove")
	}
	if !value.Equal(removed, value.IntToValue(30)) {
		t.Fatalf("removed=%v, want 30", removed)
	}
	if _, ok := value.DictLookup(rec2, value.LabelOf("age")); ok {
		t.Fatal("age should be gone after remove")
	}
	if _, ok := value.DictLookup(rec2, value.LabelOf("name")); !ok {
		t.Fatal("name should still be present after removing age")
	}
}

func TestDictLookupMissing(t *testing.T) {
	if _, ok := value.DictLookup(value.Leaf, value.LabelOf("missing")); ok {
		t.Fatal("lookup on empty dict should fail")
	}
}

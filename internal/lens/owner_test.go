package lens

import (
	"reflect"
	"testing"
)

func TestSplitIndexes(t *testing.T) {
	got, err := splitIndexes(1250, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []indexRange{
		{From: 0, To: 500},
		{From: 500, To: 1000},
		{From: 1000, To: 1250},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
}

func TestSplitIndexesEmpty(t *testing.T) {
	got, err := splitIndexes(0, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no ranges: %+v", got)
	}
}

func TestSplitIndexesZeroChunk(t *testing.T) {
	if _, err := splitIndexes(10, 0); err == nil {
		t.Fatalf("expected error for zero chunk size")
	}
}

package coordinator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestReduce(t *testing.T) {
	cases := []struct {
		name string
		in   [][]float32
		want []float32
	}{
		{"empty", nil, []float32{}},
		{"single", [][]float32{{1, 2, 3}}, []float32{1, 2, 3}},
		{"mean", [][]float32{{1, 2}, {3, 6}}, []float32{2, 4}},
		{"constant", [][]float32{{0.3, 0.3}, {0.3, 0.3}, {0.3, 0.3}}, []float32{0.3, 0.3}},
		{"zero length", [][]float32{{}, {}}, []float32{}},
	}
	for _, c := range cases {
		got, err := Reduce(c.in)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if diff := cmp.Diff(c.want, got, cmpopts.EquateApprox(0, 1e-6), cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("%s (-want +got):\n%s", c.name, diff)
		}
	}
}

func TestReduce_Mismatch(t *testing.T) {
	_, err := Reduce([][]float32{{1, 2}, {1, 2}, {1}})
	if !IsReductionMismatch(err) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

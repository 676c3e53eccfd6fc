package hacol

import (
	"errors"
	"math"
	"testing"

	"github.com/healiseu/hypermorph"
	"github.com/healiseu/hypermorph/mask"
)

func TestPipe_WhereFilterCount(t *testing.T) {
	col := stringColumn(t, "city", "NY", "LA", "NY", "SF", "LA")

	out, err := col.Q().Where("city like NY").Filter().Count().Out()
	if err != nil {
		t.Fatalf("pipeline error = %v", err)
	}
	counts := out.(Counts)
	if counts.Atoms != 1 || counts.Values != 2 {
		t.Errorf("Count = (%d,%d), want (1,2)", counts.Atoms, counts.Values)
	}
}

func TestPipe_SnapshotsAreIndependent(t *testing.T) {
	col := intColumn(t, "price", hypermorph.TypeInt64, int64(10), int64(25), int64(5))

	base := col.Q()
	low := base.Where("price<20")
	high := base.Where("price>=20")

	mLow, err := low.Mask()
	if err != nil {
		t.Fatalf("low.Mask() error = %v", err)
	}
	mHigh, err := high.Mask()
	if err != nil {
		t.Fatalf("high.Mask() error = %v", err)
	}
	if mLow.Count() != 2 || mHigh.Count() != 1 {
		t.Errorf("mask counts = (%d,%d), want (2,1)", mLow.Count(), mHigh.Count())
	}

	// The shared prefix must be untouched by either derivation.
	if _, err := base.Out(); !errors.Is(err, hypermorph.ErrSequence) {
		t.Errorf("base.Out() error = %v, want ErrSequence", err)
	}
}

func TestPipe_FilterWithoutRestriction(t *testing.T) {
	col := stringColumn(t, "city", "NY", "LA")

	_, err := col.Q().Filter().Out()
	if !errors.Is(err, hypermorph.ErrSequence) {
		t.Errorf("Filter without restriction: error = %v, want ErrSequence", err)
	}
}

func TestPipe_OutAfterFilter(t *testing.T) {
	col := stringColumn(t, "city", "NY", "LA")

	// Filter establishes the view but produces no terminal payload.
	_, err := col.Q().Where("city like NY").Filter().Out()
	if !errors.Is(err, hypermorph.ErrSequence) {
		t.Errorf("Out directly after Filter: error = %v, want ErrSequence", err)
	}
}

func TestPipe_OutAfterStart(t *testing.T) {
	col := stringColumn(t, "city", "NY")
	if _, err := col.Q().Out(); !errors.Is(err, hypermorph.ErrSequence) {
		t.Errorf("Out after bare Start: error = %v, want ErrSequence", err)
	}
}

func TestPipe_ErrorSticksToChain(t *testing.T) {
	col := stringColumn(t, "city", "NY")

	_, err := col.Q().Where("city > NY").Filter().Count().Out()
	if !errors.Is(err, hypermorph.ErrUnsupportedPredicate) {
		t.Errorf("error = %v, want the parse error to surface at Out", err)
	}
}

func TestPipe_EmptyResultSafety(t *testing.T) {
	col := stringColumn(t, "city", "NY", "LA", "SF")

	p := col.Q().Where("city like ZZZ").Filter()

	out, err := p.Count().Out()
	if err != nil {
		t.Fatalf("Count error = %v", err)
	}
	if c := out.(Counts); c.Atoms != 0 || c.Values != 0 {
		t.Errorf("Count = (%d,%d), want (0,0)", c.Atoms, c.Values)
	}

	out, err = p.ToValues(Ascending, false).Out()
	if err != nil {
		t.Fatalf("ToValues error = %v", err)
	}
	if vals := out.([]any); len(vals) != 0 {
		t.Errorf("ToValues = %v, want empty", vals)
	}

	out, err = p.ToNumeric(Unordered).Out()
	if err != nil {
		t.Fatalf("ToNumeric error = %v", err)
	}
	if nums := out.([]float64); len(nums) != 0 {
		t.Errorf("ToNumeric = %v, want empty", nums)
	}

	out, err = p.ToText().Out()
	if err != nil {
		t.Fatalf("ToText error = %v", err)
	}
	if texts := out.([]string); len(texts) != 0 {
		t.Errorf("ToText = %v, want empty", texts)
	}
}

func TestPipe_ToValuesOrdering(t *testing.T) {
	col := stringColumn(t, "city", "NY", "LA", "NY", "SF", "LA")

	out, err := col.Q().ToValues(Ascending, true).Out()
	if err != nil {
		t.Fatalf("ToValues error = %v", err)
	}
	got := out.([]any)
	want := []any{"LA", "NY", "SF"}
	if len(got) != len(want) {
		t.Fatalf("ToValues = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ToValues[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	out, err = col.Q().ToValues(Unordered, true).Out()
	if err != nil {
		t.Fatalf("ToValues error = %v", err)
	}
	got = out.([]any)
	want = []any{"NY", "LA", "SF"} // first-seen dictionary order
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("unordered ToValues[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPipe_Slice(t *testing.T) {
	col := intColumn(t, "n", hypermorph.TypeInt64,
		int64(1), int64(2), int64(3), int64(4), int64(5))

	out, err := col.Q().ToNumeric(Ascending).Slice(2, 1).Out()
	if err != nil {
		t.Fatalf("pipeline error = %v", err)
	}
	got := out.([]float64)
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("Slice(2,1) = %v, want [2 3]", got)
	}

	out, err = col.Q().ToNumeric(Ascending).Slice(0, 3).Out()
	if err != nil {
		t.Fatalf("pipeline error = %v", err)
	}
	got = out.([]float64)
	if len(got) != 2 || got[0] != 4 {
		t.Errorf("Slice(0,3) = %v, want [4 5]", got)
	}
}

func TestNumeric_WideningBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		vtype hypermorph.ValueType
		value any
		want  float64
	}{
		{"int8 max", hypermorph.TypeInt8, int64(127), 127},
		{"int8 min", hypermorph.TypeInt8, int64(-128), -128},
		{"int16 max", hypermorph.TypeInt16, int64(32767), 32767},
		{"int16 min", hypermorph.TypeInt16, int64(-32768), -32768},
		{"int32 max", hypermorph.TypeInt32, int64(2147483647), 2147483647},
		{"int32 min", hypermorph.TypeInt32, int64(-2147483648), -2147483648},
		{"int64 exact at 2^53", hypermorph.TypeInt64, int64(1) << 53, math.Pow(2, 53)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, err := New(hypermorph.Attribute{Name: "n", VType: tt.vtype}, []any{tt.value, nil})
			if err != nil {
				t.Fatalf("New error = %v", err)
			}
			nums := col.Numeric(Unordered)
			if len(nums) != 2 {
				t.Fatalf("Numeric len = %d, want 2", len(nums))
			}
			if nums[0] != tt.want {
				t.Errorf("widened value = %v, want %v", nums[0], tt.want)
			}
			if !math.IsNaN(nums[1]) {
				t.Errorf("null widened to %v, want NaN", nums[1])
			}
		})
	}
}

func TestHyperlinks(t *testing.T) {
	col := stringColumn(t, "city", "NY", nil, "LA")

	links := col.Hyperlinks(10001, 0)
	if len(links) != 2 {
		t.Fatalf("Hyperlinks len = %d, want 2 (null row skipped)", len(links))
	}
	if links[0].HB2 != 10001 || links[0].HA2 != col.Attribute().Dim2 {
		t.Errorf("link dims = (%d,%d), want (10001,%d)", links[0].HB2, links[0].HA2, col.Attribute().Dim2)
	}
	if links[0].HA1 != 0 || links[1].HA1 != 1 {
		t.Errorf("dictionary positions = (%d,%d), want (0,1)", links[0].HA1, links[1].HA1)
	}

	offset := col.Hyperlinks(10001, 100)
	if offset[0].HB1 != 100 || offset[1].HB1 != 102 {
		t.Errorf("offset row ids = (%d,%d), want (100,102)", offset[0].HB1, offset[1].HB1)
	}
}

func TestPipe_ResetAndRequery(t *testing.T) {
	col := intColumn(t, "price", hypermorph.TypeInt64, int64(10), int64(25), int64(5))

	out, err := col.Q().
		Where("price < 20").Filter().
		Reset().
		Where("price > 20").Filter().Count().Out()
	if err != nil {
		t.Fatalf("Out() error = %v", err)
	}
	counts := out.(Counts)
	if counts.Atoms != 1 || counts.Values != 1 {
		t.Errorf("counts = %+v, want 1 atom, 1 value", counts)
	}
}

func TestPipe_MaskFeedsRowSet(t *testing.T) {
	col := intColumn(t, "price", hypermorph.TypeInt64, int64(10), int64(25), int64(5))

	m, err := col.Q().Where("price<20").Mask()
	if err != nil {
		t.Fatalf("Mask error = %v", err)
	}
	want := mask.Mask{true, false, true}
	for i := range want {
		if m[i] != want[i] {
			t.Errorf("mask[%d] = %v, want %v", i, m[i], want[i])
		}
	}
}

package hacol

import (
	"errors"
	"testing"

	"github.com/healiseu/hypermorph"
	"github.com/healiseu/hypermorph/condition"
	"github.com/healiseu/hypermorph/mask"
)

func stringColumn(t *testing.T, name string, values ...any) *Collection {
	t.Helper()
	col, err := New(hypermorph.Attribute{Dim2: 1, Name: name, VType: hypermorph.TypeString}, values)
	if err != nil {
		t.Fatalf("New(%s) error = %v", name, err)
	}
	return col
}

func intColumn(t *testing.T, name string, vtype hypermorph.ValueType, values ...any) *Collection {
	t.Helper()
	col, err := New(hypermorph.Attribute{Dim2: 2, Name: name, VType: vtype}, values)
	if err != nil {
		t.Fatalf("New(%s) error = %v", name, err)
	}
	return col
}

func TestNew_CityExample(t *testing.T) {
	col := stringColumn(t, "city", "NY", "LA", "NY", "SF", "LA")

	if col.Unique() != 3 {
		t.Errorf("Unique() = %d, want 3", col.Unique())
	}
	if col.Missing() != 0 || col.Valid() != 5 || col.Length() != 5 {
		t.Errorf("Missing/Valid/Length = %d/%d/%d, want 0/5/5", col.Missing(), col.Valid(), col.Length())
	}

	wantFreq := map[string]int{"NY": 2, "LA": 2, "SF": 1}
	for _, s := range col.StateDict() {
		if s.Freq != wantFreq[s.Val.(string)] {
			t.Errorf("freq[%v] = %d, want %d", s.Val, s.Freq, wantFreq[s.Val.(string)])
		}
		if s.Cnt != s.Freq {
			t.Errorf("cnt[%v] = %d, want freq %d", s.Val, s.Cnt, s.Freq)
		}
		if s.Sel {
			t.Errorf("sel[%v] = true on construction", s.Val)
		}
		if !s.Inc {
			t.Errorf("inc[%v] = false on construction", s.Val)
		}
	}
	if got := col.StateDict().SumFreq(); got != col.Valid() {
		t.Errorf("SumFreq() = %d, want valid %d", got, col.Valid())
	}
}

func TestNew_MissingValues(t *testing.T) {
	col := stringColumn(t, "city", "NY", nil, "LA", nil, "NY")

	if col.Unique() != 2 {
		t.Errorf("Unique() = %d, want 2 (nulls excluded from dictionary)", col.Unique())
	}
	if col.Missing() != 2 || col.Valid() != 3 {
		t.Errorf("Missing/Valid = %d/%d, want 2/3", col.Missing(), col.Valid())
	}
	if got := col.StateDict().SumFreq(); got != 3 {
		t.Errorf("SumFreq() = %d, want length-missing = 3", got)
	}
}

func TestNew_TypeMismatch(t *testing.T) {
	_, err := New(hypermorph.Attribute{Name: "qty", VType: hypermorph.TypeInt32}, []any{int64(1), "many"})
	if !errors.Is(err, hypermorph.ErrTypeMismatch) {
		t.Errorf("New with malformed column: error = %v, want ErrTypeMismatch", err)
	}
}

func TestDictionaryRoundTrip(t *testing.T) {
	values := []any{"NY", nil, "LA", "NY", nil, "SF", "LA"}
	col := stringColumn(t, "city", values...)

	// Decode the index array through the dictionary and compare with the
	// original materialized column, null positions included.
	for i, pos := range col.FilteredIndex() {
		if pos == NullPos {
			if values[i] != nil {
				t.Errorf("row %d decoded null, want %v", i, values[i])
			}
			continue
		}
		v, err := col.Value(pos)
		if err != nil {
			t.Fatalf("Value(%d) error = %v", pos, err)
		}
		if v != values[i] {
			t.Errorf("row %d decoded %v, want %v", i, v, values[i])
		}
	}
}

func TestEvaluate_Comparisons(t *testing.T) {
	col := intColumn(t, "price", hypermorph.TypeInt64, int64(10), int64(25), int64(5), nil, int64(25))

	tests := []struct {
		cond string
		want []bool
	}{
		{"price<20", []bool{true, false, true, false, false}},
		{"price>=25", []bool{false, true, false, false, true}},
		{"price=25", []bool{false, true, false, false, true}},
		{"price!=25", []bool{true, false, true, false, false}},
		{"price>25", []bool{false, false, false, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			parsed, err := condition.Parse(tt.cond)
			if err != nil {
				t.Fatalf("Parse error = %v", err)
			}
			m, err := col.Evaluate(parsed)
			if err != nil {
				t.Fatalf("Evaluate error = %v", err)
			}
			for i := range tt.want {
				if m[i] != tt.want[i] {
					t.Errorf("row %d = %v, want %v", i, m[i], tt.want[i])
				}
			}
		})
	}
}

func TestEvaluate_LikeOnNumericColumn(t *testing.T) {
	col := intColumn(t, "price", hypermorph.TypeInt64, int64(10))
	_, err := col.Evaluate(condition.Condition{Op: condition.OpLike, Operand: "1"})
	if !errors.Is(err, hypermorph.ErrTypeMismatch) {
		t.Errorf("like on int column: error = %v, want ErrTypeMismatch", err)
	}
}

func TestEvaluate_OnFilteredView(t *testing.T) {
	col := intColumn(t, "price", hypermorph.TypeInt64, int64(10), int64(25), int64(5))

	parsed, _ := condition.Parse("price<20")
	m, err := col.Evaluate(parsed)
	if err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	if err := col.Restrict(m); err != nil {
		t.Fatalf("Restrict error = %v", err)
	}

	// Re-entrant evaluate narrows within the filtered view: row 1 is gone.
	parsed, _ = condition.Parse("price>=5")
	m, err = col.Evaluate(parsed)
	if err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	want := []bool{true, false, true}
	for i := range want {
		if m[i] != want[i] {
			t.Errorf("row %d = %v, want %v", i, m[i], want[i])
		}
	}
}

func TestRestrict_BeforePredicate(t *testing.T) {
	col := stringColumn(t, "city", "NY", "LA")
	err := col.Restrict(mask.All(2))
	if !errors.Is(err, hypermorph.ErrSequence) {
		t.Errorf("Restrict before Evaluate: error = %v, want ErrSequence", err)
	}
}

func TestCount_FilteredAndUnfiltered(t *testing.T) {
	col := stringColumn(t, "city", "NY", "LA", "NY", "SF", "LA")

	atoms, values := col.Count()
	if atoms != 3 || values != 5 {
		t.Errorf("unfiltered Count() = (%d,%d), want (3,5)", atoms, values)
	}

	parsed, _ := condition.Parse("city like NY")
	m, err := col.Evaluate(parsed)
	if err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	if err := col.Restrict(m); err != nil {
		t.Fatalf("Restrict error = %v", err)
	}

	atoms, values = col.Count()
	if atoms != 1 || values != 2 {
		t.Errorf("filtered Count() = (%d,%d), want (1,2)", atoms, values)
	}
	if !col.Filtered() {
		t.Error("Filtered() = false after restrict")
	}
}

func TestReset(t *testing.T) {
	col := stringColumn(t, "city", "NY", "LA", "NY", "SF", "LA")

	parsed, _ := condition.Parse("city like NY")
	m, _ := col.Evaluate(parsed)
	if err := col.Restrict(m); err != nil {
		t.Fatalf("Restrict error = %v", err)
	}
	if err := col.UpdateSelectState(col.DistinctPositions()); err != nil {
		t.Fatalf("UpdateSelectState error = %v", err)
	}

	col.Reset()

	atoms, values := col.Count()
	if atoms != 3 || values != 5 {
		t.Errorf("Count() after Reset = (%d,%d), want (3,5)", atoms, values)
	}
	if col.Filtered() {
		t.Error("Filtered() = true after Reset")
	}
	for _, s := range col.StateDict() {
		if s.Cnt != s.Freq || s.Sel || s.Inc {
			t.Errorf("state[%v] after Reset = {cnt:%d sel:%v inc:%v}, want {cnt:freq sel:false inc:false}",
				s.Val, s.Cnt, s.Sel, s.Inc)
		}
	}
}

func TestUpdateFrequencyIncludeState(t *testing.T) {
	col := stringColumn(t, "city", "NY", "LA", "NY", "SF", "LA")

	// The portion of the row set's filtered rows for this column: two NY
	// rows survive.
	if err := col.UpdateFrequencyIncludeState([]int32{0, 0}); err != nil {
		t.Fatalf("UpdateFrequencyIncludeState error = %v", err)
	}

	sd := col.StateDict()
	if sd.SumCnt() != 2 {
		t.Errorf("SumCnt() = %d, want 2", sd.SumCnt())
	}
	if sd.IncludedCount() != 1 {
		t.Errorf("IncludedCount() = %d, want 1", sd.IncludedCount())
	}
	for _, s := range sd {
		isNY := s.Val == "NY"
		if s.Inc != isNY {
			t.Errorf("inc[%v] = %v, want %v", s.Val, s.Inc, isNY)
		}
	}
}

func TestUpdateStates_Bounds(t *testing.T) {
	col := stringColumn(t, "city", "NY", "LA")

	if err := col.UpdateSelectState([]int32{7}); !errors.Is(err, hypermorph.ErrBounds) {
		t.Errorf("UpdateSelectState out of range: error = %v, want ErrBounds", err)
	}
	if err := col.UpdateFrequencyIncludeState([]int32{7}); !errors.Is(err, hypermorph.ErrBounds) {
		t.Errorf("UpdateFrequencyIncludeState out of range: error = %v, want ErrBounds", err)
	}
}

package batch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/healiseu/hypermorph"
)

// asetsDir is the fixed directory batches are persisted under.
const asetsDir = "ASETS"

// Store persists batches, one file per entity named by its dimensional key:
// ASETS/<dim4>.<dim3>.<dim2>.batch. The file layout is parquet with one
// optional leaf per attribute, so the raw typed values round-trip while
// filtering state never touches disk.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore creates a store rooted at the given directory. A nil logger
// disables tracing.
func NewStore(root string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{root: root, logger: logger}
}

// Path returns the batch file location for an entity.
func (s *Store) Path(e hypermorph.Entity) string {
	return filepath.Join(s.root, asetsDir, e.Key()+".batch")
}

// Exists reports whether a batch has been persisted for the entity.
func (s *Store) Exists(e hypermorph.Entity) bool {
	_, err := os.Stat(s.Path(e))
	return err == nil
}

// Save writes the batch to its entity's file. The write goes through a
// temporary file in the same directory followed by a rename, so a crashed
// save never leaves a truncated batch behind.
func (s *Store) Save(b *Batch) error {
	start := time.Now()
	dest := s.Path(b.Entity)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create ASETS directory: %w", err)
	}

	tmp := dest + "." + uuid.NewString() + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create batch file: %w", err)
	}

	if err := writeParquet(f, b); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write batch %s: %w", b.Entity.Key(), err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close batch file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move batch into place: %w", err)
	}

	s.logger.Info("batch saved",
		zap.String("entity", b.Entity.Key()),
		zap.String("path", dest),
		zap.Int("rows", b.NumRows()),
		zap.Int("columns", len(b.Attrs)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Load reads the entity's batch back. The attribute list drives both the
// column selection and the canonicalization of values to their declared
// types; the persisted file stores widened representations.
func (s *Store) Load(e hypermorph.Entity, attrs []hypermorph.Attribute) (*Batch, error) {
	start := time.Now()
	path := s.Path(e)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch %s: %w", e.Key(), err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat batch file: %w", err)
	}
	pq, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open batch %s as parquet: %w", e.Key(), err)
	}

	cols := make([][]any, len(attrs))
	for i := range cols {
		cols[i] = make([]any, 0, pq.NumRows())
	}

	reader := parquet.NewReader(pq)
	defer func() { _ = reader.Close() }()
	for {
		row := make(map[string]any)
		if err := reader.Read(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read batch row: %w", err)
		}
		for i, attr := range attrs {
			v, ok := row[columnName(attr)]
			if !ok {
				v = nil
			}
			cols[i] = append(cols[i], v)
		}
	}

	b, err := New(e, attrs, cols)
	if err != nil {
		return nil, err
	}
	s.logger.Info("batch loaded",
		zap.String("entity", e.Key()),
		zap.String("path", path),
		zap.Int("rows", b.NumRows()),
		zap.Duration("elapsed", time.Since(start)))
	return b, nil
}

// columnName returns the persisted column name of an attribute. Columns are
// named by dimensional identifier, not display name, so renaming an
// attribute never orphans its data.
func columnName(attr hypermorph.Attribute) string {
	return fmt.Sprintf("_%d", attr.Dim2)
}

// writeParquet writes the batch rows through a dynamic schema with one
// optional leaf per attribute.
func writeParquet(w io.Writer, b *Batch) error {
	group := parquet.Group{}
	for _, attr := range b.Attrs {
		node, err := parquetNode(attr.VType)
		if err != nil {
			return err
		}
		group[columnName(attr)] = parquet.Optional(node)
	}
	schema := parquet.NewSchema("batch", group)

	rows := make([]map[string]any, b.NumRows())
	for j := range rows {
		row := make(map[string]any, len(b.Attrs))
		for i, attr := range b.Attrs {
			v := b.Cols[i][j]
			if v == nil {
				continue
			}
			row[columnName(attr)] = persistedValue(v)
		}
		rows[j] = row
	}

	writer := parquet.NewGenericWriter[map[string]any](w, schema)
	if _, err := writer.Write(rows); err != nil {
		return err
	}
	return writer.Close()
}

// parquetNode maps a value type to its persisted leaf. Integer widths and
// dates/timestamps persist as 64-bit integers; Load narrows them back from
// the attribute metadata.
func parquetNode(t hypermorph.ValueType) (parquet.Node, error) {
	switch t {
	case hypermorph.TypeBool:
		return parquet.Leaf(parquet.BooleanType), nil
	case hypermorph.TypeInt8, hypermorph.TypeInt16, hypermorph.TypeInt32, hypermorph.TypeInt64,
		hypermorph.TypeDate, hypermorph.TypeTimestamp:
		return parquet.Int(64), nil
	case hypermorph.TypeFloat32, hypermorph.TypeFloat64:
		return parquet.Leaf(parquet.DoubleType), nil
	case hypermorph.TypeString:
		return parquet.String(), nil
	default:
		return nil, fmt.Errorf("%w: cannot persist value type %s", hypermorph.ErrTypeMismatch, t)
	}
}

// persistedValue widens a canonical value to its persisted representation.
func persistedValue(v any) any {
	switch x := v.(type) {
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

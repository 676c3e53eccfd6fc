package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/healiseu/hypermorph"
	"github.com/healiseu/hypermorph/batch"
	"github.com/healiseu/hypermorph/haset"
	"github.com/healiseu/hypermorph/output"
)

var (
	rootFlag    = flag.String("root", ".", "Data directory holding the ASETS store")
	loadFlag    = flag.String("load", "", "Delimited file to ingest and persist before querying")
	sepFlag     = flag.String("sep", ",", "Field delimiter for -load")
	nullFlag    = flag.String("null", `\N`, "Comma-separated strings that denote missing values in -load")
	skipFlag    = flag.Int("skip", 1, "Leading records to skip in -load, typically the header")
	queryFlag   = flag.String("q", "", "Filter conditions joined with ' and '; quote like patterns containing the word (e.g. \"station like 'Park and Ride'\")")
	assocFlag   = flag.Bool("assoc", false, "Filter in associative mode, updating every column's state dictionary")
	statesFlag  = flag.String("states", "", "Show the state dictionary of the named column instead of rows")
	projectFlag = flag.String("project", "", "Comma-separated columns to project")
	asFlag      = flag.String("as", "", "Comma-separated output names for -project")
	orderFlag   = flag.String("order", "", "Output column to sort rows by")
	descFlag    = flag.Bool("desc", false, "Sort -order descending")
	formatFlag  = flag.String("f", "table", "Output format: json, csv, table")
	limitFlag   = flag.Int("limit", 0, "Limit number of rows (0 = unlimited)")
	offsetFlag  = flag.Int("offset", 0, "Skip leading rows of the result")
	countFlag   = flag.Bool("count", false, "Show only the included row count")
	memFlag     = flag.Bool("mem", false, "Show memory usage of the loaded row set")
	debugFlag   = flag.Bool("debug", false, "Enable verbose logging")
)

// schemaFile is the on-disk description of one entity and its attributes.
type schemaFile struct {
	Entity struct {
		Dim4  uint32 `json:"dim4"`
		Dim3  uint32 `json:"dim3"`
		Dim2  uint32 `json:"dim2"`
		Name  string `json:"name"`
		Alias string `json:"alias"`
	} `json:"entity"`
	Attributes []struct {
		Dim2     uint32 `json:"dim2"`
		Name     string `json:"name"`
		Alias    string `json:"alias"`
		Type     string `json:"type"`
		Junction bool   `json:"junction"`
	} `json:"attributes"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <schema.json>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "A tool to load, filter and inspect associative row sets.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -load sales.csv sales.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -q \"price < 20 and qty >= 100\" sales.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -assoc -q \"city like NY\" -states price sales.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -q \"price < 20\" -project city,qty -as C,Q -f csv sales.json\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: missing schema file argument\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(schemaPath string) error {
	logger, err := newLogger(*debugFlag)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	entity, attrs, err := readSchema(schemaPath)
	if err != nil {
		return err
	}
	store := batch.NewStore(*rootFlag, logger)

	if *loadFlag != "" {
		if err := ingest(store, entity, attrs); err != nil {
			return err
		}
	}

	b, err := store.Load(entity, attrs)
	if err != nil {
		return err
	}
	set, err := haset.NewFromBatch(b)
	if err != nil {
		return err
	}
	logger.Info("row set ready",
		zap.String("session", set.Session().String()),
		zap.String("entity", entity.Key()),
		zap.Int("rows", set.NumRows()))

	if *memFlag {
		data, states := set.MemoryUsage()
		fmt.Printf("data: %d bytes, states: %d bytes\n", data, states)
		return nil
	}

	p := set.Q()
	if *assocFlag {
		p = set.Select()
	}
	for i, cond := range splitConditions(*queryFlag) {
		if i == 0 {
			p = p.Where(cond)
		} else {
			p = p.And(cond)
		}
	}
	if *queryFlag != "" {
		p = p.Filter()
	}

	if *statesFlag != "" {
		if _, err := p.Count().Out(); err != nil {
			return err
		}
		col, err := set.Col(*statesFlag)
		if err != nil {
			return err
		}
		return output.RenderStates(os.Stdout, col, *limitFlag, *offsetFlag)
	}

	if *countFlag {
		out, err := p.Count().Out()
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	if *projectFlag != "" {
		p = p.Over(splitList(*projectFlag), splitList(*asFlag))
	}
	if *orderFlag != "" {
		p = p.OrderBy(*orderFlag, *descFlag)
	}
	out, err := p.ToRows().Slice(*limitFlag, *offsetFlag).Out()
	if err != nil {
		return err
	}

	formatter, err := output.New(*formatFlag, os.Stdout)
	if err != nil {
		return err
	}
	return formatter.Format(p.Columns(), out.([]map[string]any))
}

// ingest reads the delimited file behind -load and persists it as the
// entity's batch.
func ingest(store *batch.Store, entity hypermorph.Entity, attrs []hypermorph.Attribute) error {
	f, err := os.Open(*loadFlag)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", *loadFlag, err)
	}
	defer func() { _ = f.Close() }()

	sep := []rune(*sepFlag)
	if len(sep) != 1 {
		return fmt.Errorf("-sep must be a single character, got %q", *sepFlag)
	}
	b, err := batch.FromDelimited(f, entity, attrs, batch.DelimitedOptions{
		Comma: sep[0],
		Nulls: splitList(*nullFlag),
		Skip:  *skipFlag,
	})
	if err != nil {
		return err
	}
	return store.Save(b)
}

func readSchema(path string) (hypermorph.Entity, []hypermorph.Attribute, error) {
	var sf schemaFile
	data, err := os.ReadFile(path)
	if err != nil {
		return hypermorph.Entity{}, nil, fmt.Errorf("failed to read schema: %w", err)
	}
	if err := json.Unmarshal(data, &sf); err != nil {
		return hypermorph.Entity{}, nil, fmt.Errorf("failed to parse schema %s: %w", path, err)
	}

	entity := hypermorph.Entity{
		Dim4:  sf.Entity.Dim4,
		Dim3:  sf.Entity.Dim3,
		Dim2:  sf.Entity.Dim2,
		Name:  sf.Entity.Name,
		Alias: sf.Entity.Alias,
	}
	attrs := make([]hypermorph.Attribute, 0, len(sf.Attributes))
	for _, a := range sf.Attributes {
		vt, err := hypermorph.ParseValueType(a.Type)
		if err != nil {
			return hypermorph.Entity{}, nil, fmt.Errorf("attribute %s: %w", a.Name, err)
		}
		attrs = append(attrs, hypermorph.Attribute{
			Dim2:     a.Dim2,
			Name:     a.Name,
			Alias:    a.Alias,
			VType:    vt,
			Junction: a.Junction,
		})
	}
	return entity, attrs, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// splitConditions breaks a -q value into its chained conditions. The
// separator word is only recognized outside quoted operands, so a quoted
// like pattern may contain " and ".
func splitConditions(q string) []string {
	if strings.TrimSpace(q) == "" {
		return nil
	}
	const sep = " and "
	var out []string
	var quote byte
	start := 0
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ' ' && strings.HasPrefix(q[i:], sep):
			if part := strings.TrimSpace(q[start:i]); part != "" {
				out = append(out, part)
			}
			start = i + len(sep)
			i = start - 1
		}
	}
	if part := strings.TrimSpace(q[start:]); part != "" {
		out = append(out, part)
	}
	return out
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

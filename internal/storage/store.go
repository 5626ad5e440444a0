package storage

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/san-kum/enginesim/internal/engine"
	"github.com/san-kum/enginesim/internal/system"
)

// TimeHeader labels the optional leading time column of a series file.
const TimeHeader = "time [s]"

// Store keeps one directory per run plus a SQLite table with one performance
// row per engine run.
type Store struct {
	baseDir string
	db      *sql.DB
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", filepath.Join(s.baseDir, "performance.db"))
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS performance (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		case_name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		speed REAL NOT NULL,
		power REAL NOT NULL,
		torque REAL NOT NULL,
		imep REAL NOT NULL,
		efficiency REAL NOT NULL,
		volumetric_efficiency REAL NOT NULL,
		residual REAL NOT NULL
	)`); err != nil {
		_ = db.Close()
		return fmt.Errorf("create performance table: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Series is the recorded history of one object.
type Series struct {
	Object  string      `json:"object"`
	Headers []string    `json:"headers"`
	Times   []float64   `json:"times,omitempty"`
	Rows    [][]float64 `json:"rows"`
}

// Run is everything saved for one operating point.
type Run struct {
	Case        string              `json:"case"`
	Settings    system.Settings     `json:"settings"`
	Performance *engine.Performance `json:"performance,omitempty"`
	Series      []Series            `json:"series"`
}

type RunMetadata struct {
	ID          string              `json:"id"`
	Case        string              `json:"case"`
	Timestamp   time.Time           `json:"timestamp"`
	Settings    system.Settings     `json:"settings"`
	Performance *engine.Performance `json:"performance,omitempty"`
	// Files maps each object name to its series file.
	Files map[string]string `json:"files"`
}

// Record is one row of the performance table.
type Record struct {
	RunID     string
	Case      string
	Timestamp time.Time
	engine.Performance
}

// FromSystem collects the final cycle of every object of sys. With withTime
// each series carries its sample times.
func FromSystem(caseName string, sys *system.System, perf *engine.Performance, withTime bool) (Run, error) {
	run := Run{Case: caseName, Settings: sys.Settings(), Performance: perf}
	for _, name := range sys.Names() {
		headers, err := sys.Headers(name)
		if err != nil {
			return Run{}, err
		}
		rows, err := sys.FinalCycle(name)
		if err != nil {
			return Run{}, err
		}
		sr := Series{Object: name, Headers: headers, Rows: rows}
		if withTime {
			sr.Times = sys.FinalCycleTimes()
		}
		run.Series = append(run.Series, sr)
	}
	return run, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

func fileName(object string) string {
	return unsafeChars.ReplaceAllString(object, "_")
}

// Save writes the run to its own directory and, for engine runs, inserts the
// performance point.
func (s *Store) Save(run Run) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", fileName(run.Case), now.UnixNano())
	if run.Performance != nil {
		runID = fmt.Sprintf("%s_%.0frpm_%d", fileName(run.Case), run.Performance.Speed, now.UnixNano())
	}
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Case:        run.Case,
		Timestamp:   now,
		Settings:    run.Settings,
		Performance: run.Performance,
		Files:       make(map[string]string, len(run.Series)),
	}
	used := make(map[string]bool, len(run.Series))
	for _, sr := range run.Series {
		name := fileName(sr.Object)
		for base, i := name, 2; used[name]; i++ {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		used[name] = true
		file := name + ".tsv"
		if err := writeSeries(filepath.Join(runDir, file), sr); err != nil {
			return "", err
		}
		meta.Files[sr.Object] = file
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if run.Performance != nil {
		if err := s.insert(runID, run.Case, now, *run.Performance); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func (s *Store) insert(runID, caseName string, at time.Time, p engine.Performance) error {
	if s.db == nil {
		return errors.New("storage: store not initialised")
	}
	_, err := s.db.Exec(`INSERT INTO performance
		(run_id, case_name, created_at, speed, power, torque, imep, efficiency, volumetric_efficiency, residual)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			speed=excluded.speed, power=excluded.power, torque=excluded.torque, imep=excluded.imep,
			efficiency=excluded.efficiency, volumetric_efficiency=excluded.volumetric_efficiency,
			residual=excluded.residual`,
		runID, caseName, at.UTC().Format(time.RFC3339Nano),
		p.Speed, p.Power, p.Torque, p.IMEP, p.Efficiency, p.VolumetricEfficiency, p.Residual)
	if err != nil {
		return fmt.Errorf("insert performance: %w", err)
	}
	return nil
}

func writeSeries(path string, sr Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	header := sr.Headers
	if sr.Times != nil {
		header = append([]string{TimeHeader}, sr.Headers...)
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i, r := range sr.Rows {
		row := make([]string, 0, len(header))
		if sr.Times != nil {
			row = append(row, strconv.FormatFloat(sr.Times[i], 'g', -1, 64))
		}
		for _, v := range r {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the performance table in insertion order.
func (s *Store) List() ([]Record, error) {
	if s.db == nil {
		return nil, errors.New("storage: store not initialised")
	}
	rows, err := s.db.Query(`SELECT run_id, case_name, created_at, speed, power, torque, imep,
		efficiency, volumetric_efficiency, residual FROM performance ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select performance: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var r Record
		var created string
		if err := rows.Scan(&r.RunID, &r.Case, &created, &r.Speed, &r.Power, &r.Torque, &r.IMEP,
			&r.Efficiency, &r.VolumetricEfficiency, &r.Residual); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		r.Timestamp, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Runs lists the metadata of every saved run directory.
func (s *Store) Runs() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}
	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSeries reads one object's series file back.
func (s *Store) LoadSeries(runID, object string) (Series, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return Series{}, err
	}
	file, ok := meta.Files[object]
	if !ok {
		return Series{}, fmt.Errorf("run %s has no object %q", runID, object)
	}
	f, err := os.Open(filepath.Join(s.baseDir, runID, file))
	if err != nil {
		return Series{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return Series{}, err
	}
	if len(records) == 0 {
		return Series{}, fmt.Errorf("%s: empty series file", file)
	}

	sr := Series{Object: object, Headers: records[0]}
	timed := len(sr.Headers) > 0 && sr.Headers[0] == TimeHeader
	if timed {
		sr.Headers = sr.Headers[1:]
		sr.Times = make([]float64, 0, len(records)-1)
	}
	for _, rec := range records[1:] {
		vals := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return Series{}, fmt.Errorf("%s: %w", file, err)
			}
			vals[j] = v
		}
		if timed {
			sr.Times = append(sr.Times, vals[0])
			vals = vals[1:]
		}
		sr.Rows = append(sr.Rows, vals)
	}
	return sr, nil
}

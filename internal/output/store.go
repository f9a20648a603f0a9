package output

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/analysis-suite/objsel/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUnknownRun is returned when writing to a run that was never created.
var ErrUnknownRun = errors.New("unknown run")

// Run describes one invocation of the selection over an input.
type Run struct {
	RunID       string   `json:"run_id"`
	Year        string   `json:"year"`
	IsMC        bool     `json:"is_mc"`
	Systematics []string `json:"systematics"`
	CreatedAt   int64    `json:"created_at"`
}

// ParticleRow is one stored candidate.
type ParticleRow struct {
	Run, Lumi, Event uint64
	Position         int
	Pt, Eta, Phi     float64
	Mass             float64
	SystBitmap       uint32
	Discriminator    sql.NullFloat64
	PdgID            sql.NullInt32
}

// Store persists runs and event records in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the database at path and migrates it
// to the latest schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// A single connection keeps PRAGMAs and transactions on one handle.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

func (s *Store) migrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// Closing m would close the shared *sql.DB.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// SchemaVersion returns the applied migration version and dirty state.
func (s *Store) SchemaVersion() (uint, bool, error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// migrateLogger implements migrate.Logger over the package logger.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return monitoring.Verbose()
}

// CreateRun inserts run. An empty RunID is replaced by a new UUID.
func (s *Store) CreateRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	systs, err := json.Marshal(run.Systematics)
	if err != nil {
		return fmt.Errorf("encode systematics: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO runs (run_id, year, is_mc, systematics, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.Year, run.IsMC, string(systs), run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(runID string) (*Run, error) {
	var r Run
	var systs string
	err := s.db.QueryRow(`
		SELECT run_id, year, is_mc, systematics, created_at
		FROM runs WHERE run_id = ?`, runID,
	).Scan(&r.RunID, &r.Year, &r.IsMC, &systs, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	if err := json.Unmarshal([]byte(systs), &r.Systematics); err != nil {
		return nil, fmt.Errorf("decode systematics: %w", err)
	}
	return &r, nil
}

// WriteEvent stores rec under runID in one transaction.
func (s *Store) WriteEvent(runID string, rec *EventRecord) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var exists int
	if err = tx.QueryRow(`SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&exists); err != nil {
		return fmt.Errorf("check run: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}

	res, err := tx.Exec(`
		INSERT INTO events (run_id, run, lumi, event, n_pu)
		VALUES (?, ?, ?, ?, ?)`,
		runID, int64(rec.Run), int64(rec.Lumi), int64(rec.Event), rec.NPU,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	eventPK, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("event id: %w", err)
	}

	for _, w := range rec.Weights {
		if _, err = tx.Exec(`INSERT INTO event_weights (event_pk, pass, weight) VALUES (?, ?, ?)`,
			eventPK, w.Pass.String(), w.Value); err != nil {
			return fmt.Errorf("insert weight %s: %w", w.Pass, err)
		}
	}

	for _, v := range rec.Vars {
		if _, err = tx.Exec(`
			INSERT INTO event_vars (
				event_pk, systematic, ht, ht_b, centrality, n_jets, n_bjets,
				n_tight_leptons, n_loose_btag, n_medium_btag, n_tight_btag
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			eventPK, v.Systematic.String(), v.HT, v.HTB, v.Centrality, v.NJets, v.NBJets,
			v.NTightLeptons, v.BTag.Loose, v.BTag.Medium, v.BTag.Tight,
		); err != nil {
			return fmt.Errorf("insert vars %s: %w", v.Systematic, err)
		}
	}

	if err = insertParticles(tx, eventPK, CollectionJets, &rec.Jets, nil, nil); err != nil {
		return err
	}
	if err = insertParticles(tx, eventPK, CollectionBJets, &rec.BJets.ParticleOut, rec.BJets.Discriminator, nil); err != nil {
		return err
	}
	if err = insertParticles(tx, eventPK, CollectionLeptons, &rec.Leptons.ParticleOut, nil, rec.Leptons.PdgID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertParticles(tx *sql.Tx, eventPK int64, collection string, out *ParticleOut, disc []float64, pdg []int32) error {
	stmt, err := tx.Prepare(`
		INSERT INTO particles (
			event_pk, collection, position, pt, eta, phi, mass, syst_bitmap, discriminator, pdg_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare particles: %w", err)
	}
	defer stmt.Close()

	for i := range out.Len() {
		var d, p interface{}
		if i < len(disc) {
			d = disc[i]
		}
		if i < len(pdg) {
			p = pdg[i]
		}
		if _, err := stmt.Exec(eventPK, collection, i,
			out.Pt[i], out.Eta[i], out.Phi[i], out.Mass[i], int64(out.SystBitmap[i]), d, p,
		); err != nil {
			return fmt.Errorf("insert %s[%d]: %w", collection, i, err)
		}
	}
	return nil
}

// EventCount returns the number of events stored for runID.
func (s *Store) EventCount(runID string) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Particles returns the stored candidates of collection for runID, ordered by
// event then position.
func (s *Store) Particles(runID, collection string) ([]ParticleRow, error) {
	rows, err := s.db.Query(`
		SELECT e.run, e.lumi, e.event, p.position, p.pt, p.eta, p.phi, p.mass,
		       p.syst_bitmap, p.discriminator, p.pdg_id
		FROM particles p
		JOIN events e ON e.event_pk = p.event_pk
		WHERE e.run_id = ? AND p.collection = ?
		ORDER BY e.event_pk, p.position`, runID, collection)
	if err != nil {
		return nil, fmt.Errorf("query particles: %w", err)
	}
	defer rows.Close()

	var out []ParticleRow
	for rows.Next() {
		var r ParticleRow
		var run, lumi, event, bitmap int64
		if err := rows.Scan(&run, &lumi, &event, &r.Position, &r.Pt, &r.Eta, &r.Phi, &r.Mass,
			&bitmap, &r.Discriminator, &r.PdgID); err != nil {
			return nil, fmt.Errorf("scan particle: %w", err)
		}
		r.Run, r.Lumi, r.Event, r.SystBitmap = uint64(run), uint64(lumi), uint64(event), uint32(bitmap)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Weights returns the stored weights of one event keyed by pass name.
func (s *Store) Weights(runID string, event uint64) (map[string]float64, error) {
	rows, err := s.db.Query(`
		SELECT w.pass, w.weight
		FROM event_weights w
		JOIN events e ON e.event_pk = w.event_pk
		WHERE e.run_id = ? AND e.event = ?`, runID, int64(event))
	if err != nil {
		return nil, fmt.Errorf("query weights: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var pass string
		var w float64
		if err := rows.Scan(&pass, &w); err != nil {
			return nil, fmt.Errorf("scan weight: %w", err)
		}
		out[pass] = w
	}
	return out, rows.Err()
}

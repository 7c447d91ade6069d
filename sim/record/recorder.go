// Package record stores noise sweep results in SQLite, one table per run.
package record

import (
	"database/sql"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"
	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
)

const tablePrefix = "sweep_"

// SweepRow is one point of a noise sweep. Field order is column order.
type SweepRow struct {
	RunID     string
	Variant   string
	Policy    string
	Noise     int
	KeyLen    int
	Correct   int
	Unknown   int
	Wrong     int
	Conflicts int
}

// Recorder buffers sweep rows and writes them into a table named after its
// run id. Pending rows are flushed on Close, when the buffer fills, and on
// atexit.Exit.
type Recorder struct {
	db        *sql.DB
	path      string
	runID     string
	table     string
	pending   []SweepRow
	batchSize int
	closed    bool
}

// Open opens or creates the database path+".sqlite3" and a fresh table for
// this run. An empty path picks a name from the run id.
func Open(path string) (*Recorder, error) {
	runID := xid.New().String()
	if path == "" {
		path = "sharp_sweep_" + runID
	}
	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		logrus.Infof("Appending run %s to %s", runID, filename)
	} else {
		logrus.Infof("Database created for recording: %s", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filename)
	}
	r := &Recorder{
		db:        db,
		path:      filename,
		runID:     runID,
		table:     tablePrefix + runID,
		batchSize: 1000,
	}
	if err := r.createTable(); err != nil {
		db.Close()
		return nil, err
	}

	atexit.Register(func() {
		if err := r.Close(); err != nil {
			logrus.Errorf("closing recorder: %v", err)
		}
	})
	return r, nil
}

func (r *Recorder) createTable() error {
	fields := strings.Join(structs.Names(SweepRow{}), ", \n\t")
	_, err := r.db.Exec(`CREATE TABLE ` + r.table + ` (` + "\n\t" + fields + "\n" + `);`)
	return errors.Wrapf(err, "creating table %s", r.table)
}

// RunID returns the identifier of this run.
func (r *Recorder) RunID() string { return r.runID }

// Table returns the table this run writes to.
func (r *Recorder) Table() string { return r.table }

// Path returns the database file name.
func (r *Recorder) Path() string { return r.path }

// Insert buffers row, stamping it with the run id.
func (r *Recorder) Insert(row SweepRow) error {
	if r.closed {
		return errors.New("recorder is closed")
	}
	row.RunID = r.runID
	r.pending = append(r.pending, row)
	if len(r.pending) >= r.batchSize {
		return r.Flush()
	}
	return nil
}

// Flush writes the buffered rows in one transaction.
func (r *Recorder) Flush() error {
	if len(r.pending) == 0 || r.closed {
		return nil
	}
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(structs.Names(SweepRow{}))), ", ")
	stmt, err := tx.Prepare("INSERT INTO " + r.table + " VALUES (" + placeholders + ")")
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for _, row := range r.pending {
		if _, err := stmt.Exec(structs.Values(row)...); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "insert noise %d", row.Noise)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	r.pending = nil
	return nil
}

// Rows reads back every flushed row of this run in insertion order.
func (r *Recorder) Rows() ([]SweepRow, error) {
	return readRows(r.db, r.table)
}

// Tables lists the sweep tables in the database, one per recorded run.
func (r *Recorder) Tables() ([]string, error) {
	rows, err := r.db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name LIKE ? ORDER BY name`, tablePrefix+"%")
	if err != nil {
		return nil, errors.Wrap(err, "listing tables")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scanning table name")
		}
		out = append(out, name)
	}
	return out, errors.Wrap(rows.Err(), "listing tables")
}

// Close flushes pending rows and closes the database. Closing twice is a
// no-op.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	err := r.Flush()
	r.closed = true
	if cerr := r.db.Close(); err == nil {
		err = errors.Wrap(cerr, "closing database")
	}
	return err
}

func readRows(db *sql.DB, table string) ([]SweepRow, error) {
	rows, err := db.Query("SELECT * FROM " + table + " ORDER BY rowid")
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", table)
	}
	defer rows.Close()

	var out []SweepRow
	for rows.Next() {
		var row SweepRow
		v := reflect.ValueOf(&row).Elem()
		dest := make([]any, v.NumField())
		for i := range dest {
			dest[i] = v.Field(i).Addr().Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrapf(err, "scanning %s", table)
		}
		out = append(out, row)
	}
	return out, errors.Wrapf(rows.Err(), "reading %s", table)
}

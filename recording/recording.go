// Package recording stores record streams in an SQLite database.
//
// Every design is stored in three tables: the raw record lines in emission
// order, the placed instances and the exported pins. Writes are buffered and
// flushed in a single transaction.
//
package recording

import (
	"database/sql"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
	"github.com/tinapiao/icgen"

	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// Table names.
//
const (
	TableRecords   = "records"
	TableInstances = "instances"
	TablePins      = "pins"
)

type recordRow struct {
	Design string
	Seq    int
	Kind   string
	Line   string
}

type instanceRow struct {
	Design   string
	Name     string
	Template string
	X        int
	Y        int
	Orient   string
	NX       int
	NY       int
}

type pinRow struct {
	Design string
	Name   string
	Grid   string
	Layer  int
	X0     int
	Y0     int
	X1     int
	Y1     int
}

var tables = []struct {
	name   string
	sample interface{}
}{
	{TableRecords, recordRow{}},
	{TableInstances, instanceRow{}},
	{TablePins, pinRow{}},
}

// Recorder is an icgen.Sink writing to an SQLite database.
//
type Recorder struct {
	*sql.DB

	path      string
	batchSize int
	design    string
	seq       int
	pending   map[string][]interface{}
	count     int
}

// DefaultBatchSize is the number of buffered rows that triggers a flush.
//
const DefaultBatchSize = 10000

// New creates a recorder writing to a new database file path + ".sqlite3".
// If path is empty, a unique name is generated. It is an error if the file
// already exists.
//
// Pending rows are flushed when the process exits through atexit.Exit.
//
func New(path string) (*Recorder, error) {
	if path == "" {
		path = "icgen_" + xid.New().String()
	}
	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return nil, errors.Errorf("file %s already exists", filename)
	}
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, errors.Wrap(err, filename)
	}
	glog.V(1).Infof("recording to %s", filename)
	r, err := NewWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	r.path = filename
	return r, nil
}

// NewWithDB creates a recorder over an open database.
//
func NewWithDB(db *sql.DB) (*Recorder, error) {
	r := &Recorder{
		DB:        db,
		batchSize: DefaultBatchSize,
		pending:   make(map[string][]interface{}),
	}
	for _, t := range tables {
		q := "CREATE TABLE IF NOT EXISTS " + t.name + " (\n\t" + strings.Join(structs.Names(t.sample), ", \n\t") + "\n);"
		if _, err := r.Exec(q); err != nil {
			return nil, errors.Wrap(err, "create table "+t.name)
		}
	}
	atexit.Register(func() {
		if err := r.Flush(); err != nil {
			glog.Errorf("recording: %v", err)
		}
	})
	return r, nil
}

// Path returns the database file name, or "" if the recorder was created
// over an existing connection.
//
func (r *Recorder) Path() string { return r.path }

// SetBatchSize sets the number of buffered rows that triggers a flush.
//
func (r *Recorder) SetBatchSize(n int) {
	if n < 1 {
		n = 1
	}
	r.batchSize = n
}

// Start starts recording the records of the named design.
//
func (r *Recorder) Start(design string) {
	r.design = design
	r.seq = 0
}

// Write implements icgen.Sink.
//
func (r *Recorder) Write(rec icgen.Record) error {
	if r.design == "" {
		return errors.New("recording: Write before Start")
	}
	r.add(TableRecords, recordRow{r.design, r.seq, rec.Kind(), rec.String()})
	r.seq++
	switch rec := rec.(type) {
	case *icgen.Instance:
		r.add(TableInstances, instanceRow{
			r.design, rec.Name, rec.Template.Name,
			rec.Origin.X, rec.Origin.Y, rec.Orient.String(),
			rec.Shape.NX, rec.Shape.NY,
		})
	case *icgen.Pin:
		b := rec.Box
		r.add(TablePins, pinRow{r.design, rec.Name, rec.Grid, rec.Layer, b.X0, b.Y0, b.X1, b.Y1})
	}
	if r.count >= r.batchSize {
		return r.Flush()
	}
	return nil
}

func (r *Recorder) add(table string, row interface{}) {
	r.pending[table] = append(r.pending[table], row)
	r.count++
}

// Record writes all records of a finished design.
//
func (r *Recorder) Record(d *icgen.Design) error {
	r.Start(d.Name)
	return d.Emit(r)
}

// Flush writes all buffered rows in one transaction.
//
func (r *Recorder) Flush() error {
	if r.count == 0 {
		return nil
	}
	tx, err := r.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	for _, t := range tables {
		rows := r.pending[t.name]
		if len(rows) == 0 {
			continue
		}
		if err = insert(tx, t.name, rows); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	glog.V(2).Infof("recording: flushed %d rows", r.count)
	r.pending = make(map[string][]interface{})
	r.count = 0
	return nil
}

func insert(tx *sql.Tx, table string, rows []interface{}) error {
	n := structs.Names(rows[0])
	for i := range n {
		n[i] = "?"
	}
	stmt, err := tx.Prepare("INSERT INTO " + table + " VALUES (" + strings.Join(n, ", ") + ")")
	if err != nil {
		return errors.Wrap(err, "prepare "+table)
	}
	defer stmt.Close()
	for _, row := range rows {
		v := reflect.ValueOf(row)
		args := make([]interface{}, v.NumField())
		for i := range args {
			args[i] = v.Field(i).Interface()
		}
		if _, err = stmt.Exec(args...); err != nil {
			return errors.Wrap(err, "insert into "+table)
		}
	}
	return nil
}

// Close flushes pending rows and closes the database.
//
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		r.DB.Close()
		return err
	}
	return r.DB.Close()
}

// Lines returns the record lines of a design in emission order.
//
func (r *Recorder) Lines(design string) ([]string, error) {
	rows, err := r.Query("SELECT Line FROM "+TableRecords+" WHERE Design = ? ORDER BY Seq", design)
	if err != nil {
		return nil, errors.Wrap(err, "query records")
	}
	defer rows.Close()
	var ls []string
	for rows.Next() {
		var l string
		if err = rows.Scan(&l); err != nil {
			return nil, errors.WithStack(err)
		}
		ls = append(ls, l)
	}
	return ls, errors.WithStack(rows.Err())
}

// Designs returns the names of the recorded designs.
//
func (r *Recorder) Designs() ([]string, error) {
	rows, err := r.Query("SELECT DISTINCT Design FROM " + TableRecords + " ORDER BY Design")
	if err != nil {
		return nil, errors.Wrap(err, "query designs")
	}
	defer rows.Close()
	var ds []string
	for rows.Next() {
		var d string
		if err = rows.Scan(&d); err != nil {
			return nil, errors.WithStack(err)
		}
		ds = append(ds, d)
	}
	return ds, errors.WithStack(rows.Err())
}

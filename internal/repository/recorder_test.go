package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"

	"github.com/jmoiron/sqlx"
)

type recordedQuery struct {
	query string
	args  []driver.Value
}

// recorder is a database/sql connector that records every query and answers
// with an empty result set.
type recorder struct {
	mu      sync.Mutex
	queries []recordedQuery
}

func newRecordingDB() (*sqlx.DB, *recorder) {
	rec := &recorder{}
	return sqlx.NewDb(sql.OpenDB(rec), "postgres"), rec
}

func (r *recorder) Connect(context.Context) (driver.Conn, error) { return &recordingConn{rec: r}, nil }
func (r *recorder) Driver() driver.Driver { return recordingDriver{rec: r} }

func (r *recorder) all() []recordedQuery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedQuery(nil), r.queries...)
}

type recordingDriver struct{ rec *recorder }

func (d recordingDriver) Open(string) (driver.Conn, error) { return &recordingConn{rec: d.rec}, nil }

type recordingConn struct{ rec *recorder }

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements are not recorded")
}
func (c *recordingConn) Close() error { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) { return nil, errors.New("transactions are not recorded") }

func (c *recordingConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	q := recordedQuery{query: query}
	for _, a := range args {
		q.args = append(q.args, a.Value)
	}
	c.rec.mu.Lock()
	c.rec.queries = append(c.rec.queries, q)
	c.rec.mu.Unlock()
	return emptyRows{}, nil
}

type emptyRows struct{}

func (emptyRows) Columns() []string { return nil }
func (emptyRows) Close() error { return nil }
func (emptyRows) Next([]driver.Value) error { return io.EOF }

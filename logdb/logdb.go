// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"math/big"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pondfi/pond/metrics"
	"github.com/pondfi/pond/pond"
	"github.com/pondfi/pond/staking"
)

const recordTableSchema = `CREATE TABLE IF NOT EXISTS record (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	account BLOB(20) NOT NULL,
	amount BLOB NOT NULL,
	recordTime INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS record_name ON record(name);
CREATE INDEX IF NOT EXISTS record_account ON record(account);`

// LogDB the append-only store of emitted records, for external indexers.
type LogDB struct {
	path string
	db   *sql.DB
}

// New create or open the record db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(recordTableSchema); err != nil {
		return nil, err
	}
	return &LogDB{path, db}, nil
}

// NewMem create a record db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the record db.
func (db *LogDB) Close() {
	db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// Write appends an emitted record.
func (db *LogDB) Write(ev *staking.Event) error {
	_, err := db.db.Exec(
		"INSERT INTO record(name, account, amount, recordTime) VALUES(?,?,?,?)",
		ev.Name,
		ev.Account.Bytes(),
		ev.Amount.Bytes(),
		ev.Time,
	)
	if err == nil && !metrics.NoOp() {
		metricWriteCounter().Add(1)
	}
	return err
}

// Filter queries stored records.
// A nil filter returns everything in insertion order.
func (db *LogDB) Filter(ctx context.Context, filter *Filter) ([]*Record, error) {
	stmt := "SELECT seq, name, account, amount, recordTime FROM record WHERE 1"
	var args []any
	if filter != nil {
		if filter.AfterSeq > 0 {
			stmt += " AND seq > ?"
			args = append(args, filter.AfterSeq)
		}
		if filter.Name != "" {
			stmt += " AND name = ?"
			args = append(args, filter.Name)
		}
		if filter.Account != nil {
			stmt += " AND account = ?"
			args = append(args, filter.Account.Bytes())
		}
		if filter.Order == DESC {
			stmt += " ORDER BY seq DESC"
		} else {
			stmt += " ORDER BY seq ASC"
		}
		if filter.Options != nil {
			stmt += " LIMIT ?, ?"
			args = append(args, filter.Options.Offset, filter.Options.Limit)
		}
	}
	metricsHandleFilter(filter)

	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			seq     uint64
			name    string
			account []byte
			amount  []byte
			t       uint64
		)
		if err := rows.Scan(&seq, &name, &account, &amount, &t); err != nil {
			return nil, err
		}
		records = append(records, &Record{
			Seq: seq,
			Event: staking.Event{
				Name:    name,
				Account: pond.BytesToAddress(account),
				Amount:  new(big.Int).SetBytes(amount),
				Time:    t,
			},
		})
	}
	return records, rows.Err()
}

// MaxSeq returns the sequence of the newest record, 0 when the log is empty.
func (db *LogDB) MaxSeq(ctx context.Context) (uint64, error) {
	var seq uint64
	err := db.db.QueryRowContext(ctx, "SELECT IFNULL(MAX(seq), 0) FROM record").Scan(&seq)
	return seq, err
}

// FilterAfter returns up to limit records with sequence greater than pos,
// in insertion order.
func (db *LogDB) FilterAfter(pos uint64, limit uint64) ([]*Record, error) {
	return db.Filter(context.Background(), &Filter{
		AfterSeq: pos,
		Order:    ASC,
		Options:  &Options{Limit: limit},
	})
}

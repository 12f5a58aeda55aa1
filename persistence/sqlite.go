//
// Copyright 2021 Johns Hopkins University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	createResultsTable = "CREATE TABLE IF NOT EXISTS main.results (key text UNIQUE NOT NULL, format text NOT NULL, output text NOT NULL, triples integer NOT NULL, created text NOT NULL)"
	selectKey          = "SELECT 1 FROM main.results WHERE key=?"
	selectResultByKey  = "SELECT format, output, triples, created FROM main.results WHERE key=?"
	insertResult       = "INSERT INTO main.results (key, format, output, triples, created) VALUES (?, ?, ?, ?, ?)"
	updateResultByKey  = "UPDATE main.results SET format = ?, output = ?, triples = ?, created = ? WHERE key = ?"
)

type SqliteParams struct {
	User        string
	Pass        string
	MaxIdleConn int
	MaxOpenConn int
}

type sqliteStore struct {
	ctx context.Context
	db  *sql.DB
}

// Opens (creating if necessary) the sqlite database identified by the dsn, e.g. "file:/tmp/n3fmt.db?mode=rwc" or
// ":memory:".  Note that every connection to ":memory:" is a distinct database, so in-memory stores should cap
// MaxOpenConn at 1.
func NewSqliteStore(dsn string, params SqliteParams, ctx context.Context) (Store, error) {
	var db *sql.DB
	var err error

	if ctx == nil {
		ctx = context.Background()
	}

	if db, err = sql.Open("sqlite3", dsn); err != nil {
		return sqliteStore{}, fmt.Errorf("persistence: error opening %s: %w", dsn, err)
	}

	if params.MaxIdleConn > 0 {
		db.SetMaxIdleConns(params.MaxIdleConn)
	}

	if params.MaxOpenConn > 0 {
		db.SetMaxOpenConns(params.MaxOpenConn)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return sqliteStore{}, fmt.Errorf("persistence: error connecting to %s: %w", dsn, err)
	}

	if _, err = db.ExecContext(ctx, createResultsTable); err != nil {
		db.Close()
		return sqliteStore{}, NewErrQuery(createResultsTable, err, "persistence", "NewSqliteStore")
	}

	return sqliteStore{
		ctx: ctx,
		db:  db,
	}, nil
}

func (store sqliteStore) StoreResult(key string, r Result) error {
	var tx *sql.Tx
	var err error

	if tx, err = store.db.BeginTx(store.ctx, nil); err != nil {
		return NewErrTx(begin, key, err, "persistence", "StoreResult")
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			log.Printf("%v", NewErrTx(rollback, key, err, "persistence", "StoreResult"))
		}
	}()

	var exists int
	isUpdate := true
	if err = tx.QueryRowContext(store.ctx, selectKey, key).Scan(&exists); err != nil {
		if err != sql.ErrNoRows {
			return NewErrQuery(selectKey, err, "persistence", "StoreResult", key)
		}
		isUpdate = false
	}

	created := r.Created
	if created.IsZero() {
		created = time.Now()
	}
	createdStr := created.UTC().Format(time.RFC3339Nano)

	if isUpdate {
		if _, err = tx.ExecContext(store.ctx, updateResultByKey, r.Format, r.Output, r.Triples, createdStr, key); err != nil {
			return NewErrQuery(updateResultByKey, err, "persistence", "StoreResult", r.Format, fmt.Sprintf("%d", r.Triples), createdStr, key)
		}
	} else {
		if _, err = tx.ExecContext(store.ctx, insertResult, key, r.Format, r.Output, r.Triples, createdStr); err != nil {
			return NewErrQuery(insertResult, err, "persistence", "StoreResult", key, r.Format, fmt.Sprintf("%d", r.Triples), createdStr)
		}
	}

	if err = tx.Commit(); err != nil {
		return NewErrTx(commit, key, err, "persistence", "StoreResult")
	}

	return nil
}

func (store sqliteStore) Retrieve(key string) (Result, error) {
	var r Result
	var created string

	err := store.db.QueryRowContext(store.ctx, selectResultByKey, key).Scan(&r.Format, &r.Output, &r.Triples, &created)
	if err == sql.ErrNoRows {
		return Result{}, NewErrNoResults(selectResultByKey, "persistence", "Retrieve", key)
	} else if err != nil {
		return Result{}, NewErrRowScan(selectResultByKey, err, "persistence", "Retrieve", key)
	}

	if r.Created, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Result{}, NewErrRowScan(selectResultByKey, err, "persistence", "Retrieve", key)
	}

	return r, nil
}

func (store sqliteStore) Close() error {
	if store.db == nil {
		return nil
	}
	return store.db.Close()
}

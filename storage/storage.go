/*
 * Copyright 2026 The OrdainSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package storage provides the sqlite connection string descriptor used by
// the tiered storage layer, and a small key-value archive the chain layer
// uses to persist packed blocks and meta entries.
//
// The sqlite3 driver only guarantees safety for concurrent readers, so keep
// archive writes on a single goroutine. The chain serializes block writes
// through its commit path already.
package storage

import (
	"database/sql"
	"fmt"
	"sync"

	// Register sqlite3 engine.
	_ "github.com/CovenantSQL/go-sqlite3-encrypt"
)

var (
	index = struct {
		mu *sync.Mutex
		db map[string]*sql.DB
	}{
		&sync.Mutex{},
		make(map[string]*sql.DB),
	}
)

func openDB(dsn string) (db *sql.DB, err error) {
	index.mu.Lock()
	defer index.mu.Unlock()

	db = index.db[dsn]
	if db == nil {
		db, err = sql.Open("sqlite3", dsn)

		if err != nil {
			return nil, err
		}

		index.db[dsn] = db
	}

	return db, err
}

// Storage represents a key-value archive.
type Storage struct {
	dsn   string
	table string
	db    *sql.DB
}

// KV represents a key-value pair.
type KV struct {
	Key   string
	Value []byte
}

// OpenStorage opens a database using the specified DSN and ensures that the
// specified table exists.
func OpenStorage(dsn string, table string) (st *Storage, err error) {
	var db *sql.DB
	db, err = openDB(dsn)

	if err != nil {
		return st, err
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (`key` TEXT PRIMARY KEY, `value` BLOB)",
		table)

	if _, err = db.Exec(stmt); err != nil {
		return st, err
	}

	st = &Storage{dsn, table, db}
	return st, err
}

// SetValue sets or replaces the value of key.
func (s *Storage) SetValue(key string, value []byte) (err error) {
	stmt := fmt.Sprintf("INSERT OR REPLACE INTO `%s` (`key`, `value`) VALUES (?, ?)", s.table)
	_, err = s.db.Exec(stmt, key, value)

	return err
}

// DelValue deletes the value of key.
func (s *Storage) DelValue(key string) (err error) {
	stmt := fmt.Sprintf("DELETE FROM `%s` WHERE `key` = ?", s.table)
	_, err = s.db.Exec(stmt, key)

	return err
}

// GetValue fetches the value of key. A missing key returns a nil value and
// no error.
func (s *Storage) GetValue(key string) (value []byte, err error) {
	stmt := fmt.Sprintf("SELECT `value` FROM `%s` WHERE `key` = ?", s.table)

	if err = s.db.QueryRow(stmt, key).Scan(&value); err == sql.ErrNoRows {
		err = nil
	}

	return value, err
}

// Close closes the underlying database handle and evicts it from the shared
// index. Other Storage instances opened with the same DSN share the handle and
// must not be used afterwards.
func (s *Storage) Close() (err error) {
	index.mu.Lock()
	defer index.mu.Unlock()

	if s.db == nil {
		return
	}
	if index.db[s.dsn] == s.db {
		delete(index.db, s.dsn)
	}
	err = s.db.Close()
	s.db = nil
	return
}

// SetValuesTx sets or replaces the key-value pairs in kvs as a transaction.
func (s *Storage) SetValuesTx(kvs []KV) (err error) {
	tx, err := s.db.Begin()

	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	stmt := fmt.Sprintf("INSERT OR REPLACE INTO `%s` (`key`, `value`) VALUES (?, ?)", s.table)
	pStmt, err := tx.Prepare(stmt)

	if err != nil {
		return err
	}

	defer pStmt.Close()

	for _, row := range kvs {
		if _, err = pStmt.Exec(row.Key, row.Value); err != nil {
			return err
		}
	}

	return nil
}

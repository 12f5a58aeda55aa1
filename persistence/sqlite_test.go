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
	"errors"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func memoryStore(t *testing.T) Store {
	store, err := NewSqliteStore(":memory:", SqliteParams{MaxIdleConn: 1, MaxOpenConn: 1}, nil)
	require.Nil(t, err)
	return store
}

func Test_Key(t *testing.T) {
	k := Key("n3", "<urn:a> <urn:p> <urn:b> .")

	assert.Equal(t, 64, len(k))
	assert.Equal(t, k, Key("n3", "<urn:a> <urn:p> <urn:b> ."))
	assert.NotEqual(t, k, Key("nt", "<urn:a> <urn:p> <urn:b> ."))
	assert.NotEqual(t, k, Key("n3", "<urn:a> <urn:p> <urn:c> ."))
	// the separator keeps format and input from running together
	assert.NotEqual(t, Key("n3x", "y"), Key("n3", "xy"))
}

func Test_StoreAndRetrieve(t *testing.T) {
	store := memoryStore(t)
	defer store.Close()

	created := time.Date(2021, 6, 1, 12, 30, 0, 0, time.UTC)
	key := Key("n3", "<urn:a> <urn:p> \"hello\" .")
	expected := Result{
		Format:  "n3",
		Output:  "<urn:a> <urn:p> \"hello\" .\n",
		Triples: 1,
		Created: created,
	}

	assert.Nil(t, store.StoreResult(key, expected))

	actual, err := store.Retrieve(key)
	assert.Nil(t, err)
	assert.Equal(t, expected.Format, actual.Format)
	assert.Equal(t, expected.Output, actual.Output)
	assert.Equal(t, expected.Triples, actual.Triples)
	assert.True(t, created.Equal(actual.Created))
}

func Test_StoreUpdatesExisting(t *testing.T) {
	store := memoryStore(t)
	defer store.Close()

	key := Key("n3", "")
	assert.Nil(t, store.StoreResult(key, Result{Format: "n3", Output: "first"}))
	assert.Nil(t, store.StoreResult(key, Result{Format: "n3", Output: "second", Triples: 2}))

	actual, err := store.Retrieve(key)
	assert.Nil(t, err)
	assert.Equal(t, "second", actual.Output)
	assert.Equal(t, 2, actual.Triples)
	// a zero creation time is replaced with the time of storage
	assert.False(t, actual.Created.IsZero())
}

func Test_RetrieveMissing(t *testing.T) {
	store := memoryStore(t)
	defer store.Close()

	_, err := store.Retrieve(Key("n3", "never stored"))

	assert.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrNoResults))

	var storeErr StoreErr
	assert.True(t, errors.As(err, &storeErr))
	assert.Contains(t, storeErr.Error(), "persistence.Retrieve: no results")
}

func Test_FileStorePersists(t *testing.T) {
	dir, err := ioutil.TempDir("", "n3fmt-persistence-")
	require.Nil(t, err)
	defer os.RemoveAll(dir)

	dsn := fmt.Sprintf("file:%s?mode=rwc", filepath.Join(dir, "cache.db"))
	key := Key("nt", "<urn:a> <urn:p> <urn:b> .")

	store, err := NewSqliteStore(dsn, SqliteParams{MaxIdleConn: 2, MaxOpenConn: 2}, nil)
	require.Nil(t, err)
	assert.Nil(t, store.StoreResult(key, Result{Format: "nt", Output: "<urn:a> <urn:p> <urn:b> .\n", Triples: 1}))
	assert.Nil(t, store.Close())

	// re-opening the database answers the result stored by the previous store
	store, err = NewSqliteStore(dsn, SqliteParams{}, nil)
	require.Nil(t, err)
	defer store.Close()

	r, err := store.Retrieve(key)
	assert.Nil(t, err)
	assert.Equal(t, 1, r.Triples)
}

func Test_OpenBadDsn(t *testing.T) {
	_, err := NewSqliteStore("file:/nonexistent-dir/n3fmt/cache.db?mode=ro", SqliteParams{}, nil)
	assert.NotNil(t, err)
}

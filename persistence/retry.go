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
	"github.com/mattn/go-sqlite3"
	"math"
	"time"
)

type retryStore struct {
	retryInterval   time.Duration
	backoffFactor   float64
	maxTries        int
	underlyingStore Store
	errors          []sqlite3.ErrNo
	sleep           func(time.Duration)
}

type retryCallback func() error

// Decorates the store, retrying writes that fail with one of the supplied sqlite error codes.  The first retry
// happens after retryInterval, and each subsequent interval is multiplied by backoffFactor.  At most maxTries
// attempts are made in total.
func NewRetrySqliteStore(store Store, retryInterval time.Duration, backoffFactor float64, maxTries int, errors ...sqlite3.ErrNo) Store {
	return retryStore{
		retryInterval:   retryInterval,
		backoffFactor:   backoffFactor,
		maxTries:        maxTries,
		underlyingStore: store,
		errors:          errors,
		sleep:           time.Sleep,
	}
}

func (rs retryStore) StoreResult(key string, r Result) error {
	return rs.retry(rs.maxTries, rs.retryInterval, func() error {
		return rs.underlyingStore.StoreResult(key, r)
	})
}

func (rs retryStore) Retrieve(key string) (Result, error) {
	var result Result
	err := rs.retry(rs.maxTries, rs.retryInterval, func() error {
		var err error
		result, err = rs.underlyingStore.Retrieve(key)
		return err
	})
	return result, err
}

func (rs retryStore) Close() error {
	return rs.underlyingStore.Close()
}

func (rs retryStore) retry(triesLeft int, retryInterval time.Duration, callback retryCallback) error {
	err := callback()

	if err == nil {
		return nil
	}

	// if the error is in the list if errors we retry on, then recurse (trying again)
	for _, targetErr := range rs.errors {
		if checkError(err, targetErr) {
			triesLeft = triesLeft - 1
			if triesLeft <= 0 {
				return NewErrMaxRetry(err, rs.maxTries)
			}

			// back off
			rs.sleep(retryInterval)

			retryFloat := float64(retryInterval.Nanoseconds()) * rs.backoffFactor
			retryInterval = time.Duration(int64(math.Floor(retryFloat)))

			// recurse (retry again)
			return rs.retry(triesLeft, retryInterval, callback)
		}
		// next error
	}

	return err
}

func checkError(caught error, target sqlite3.ErrNo) bool {
	var sqliteErr sqlite3.Error

	if !errors.As(caught, &sqliteErr) {
		return false
	}

	return sqliteErr.Code == target
}

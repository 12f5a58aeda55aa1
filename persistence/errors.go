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
	"strings"
)

type txOp string

const (
	begin    txOp = "begin"
	commit   txOp = "commit"
	rollback txOp = "rollback"
)

var (
	ErrNoResults = errors.New("persistence: no results")
	ErrMaxRetry  = errors.New("persistence: maximum retries exceeded")
)

type StoreErr struct {
	Message    string
	Underlying error
	// an optional sentinel this error is classified as, e.g. ErrNoResults
	kind error
}

func (se StoreErr) Error() string {
	return se.Message
}

func (se StoreErr) Unwrap() error {
	return se.Underlying
}

func (se StoreErr) Is(target error) bool {
	return se.kind != nil && se.kind == target
}

func NewErrQuery(query string, err error, pkg, method string, args ...string) StoreErr {
	return StoreErr{
		Message:    fmt.Sprintf("%s.%s: error executing query '%s' with args [%s]: %v", pkg, method, query, strings.Join(args, ", "), err),
		Underlying: err,
	}
}

func NewErrRowScan(query string, err error, pkg, method string, args ...string) StoreErr {
	return StoreErr{
		Message:    fmt.Sprintf("%s.%s: error scanning result of query '%s' with args [%s]: %v", pkg, method, query, strings.Join(args, ", "), err),
		Underlying: err,
	}
}

func NewErrNoResults(query string, pkg, method string, args ...string) StoreErr {
	return StoreErr{
		Message: fmt.Sprintf("%s.%s: no results for query '%s' with args [%s]", pkg, method, query, strings.Join(args, ", ")),
		kind:    ErrNoResults,
	}
}

func NewErrTx(op txOp, key string, err error, pkg, method string) StoreErr {
	return StoreErr{
		Message:    fmt.Sprintf("%s.%s: error performing %s of transaction for %s: %v", pkg, method, op, key, err),
		Underlying: err,
	}
}

func NewErrClose(err error, pkg, method string) StoreErr {
	return StoreErr{
		Message:    fmt.Sprintf("%s.%s: error closing rows: %v", pkg, method, err),
		Underlying: err,
	}
}

func NewErrMaxRetry(err error, maxTries int) StoreErr {
	return StoreErr{
		Message:    fmt.Sprintf("persistence: giving up after %d tries: %v", maxTries, err),
		Underlying: err,
		kind:       ErrMaxRetry,
	}
}

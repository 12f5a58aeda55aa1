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

// Responsible for obtaining N3 text from a file, standard input, or an HTTP(S) URL
package retrieve

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"strings"
)

const (
	// HTTP media types used to request an N3 representation of a resource, in order of preference
	N3MediaType     = "text/n3"
	TurtleMediaType = "text/turtle"
	// location denoting standard input
	Stdin = "-"
	// upper bound on the size of a retrieved document
	maxBodyBytes = 64 << 20
)

// Retrieve the N3 text found at the location: a file path, an http(s) URL, or "-" for standard input.
type Retriever interface {
	Get(ctx context.Context, location string) (string, error)
}

type RetrieveErr struct {
	Location string
	Message  string
	Wrapped  error
}

func (re RetrieveErr) Error() string {
	return fmt.Sprintf("retriever: error retrieving %s, %s", re.Location, re.Message)
}

func (re RetrieveErr) Unwrap() error {
	return re.Wrapped
}

type retriever struct {
	httpClient *http.Client
	username   string
	password   string
	useragent  string
	stdin      io.Reader
}

func (r retriever) Get(ctx context.Context, location string) (string, error) {
	switch {
	case location == Stdin:
		return r.read(location, r.stdin)
	case isHttp(location):
		return r.getHttp(ctx, location)
	}

	f, err := os.Open(location)
	if err != nil {
		return "", RetrieveErr{location, err.Error(), err}
	}

	defer func() { f.Close() }()

	return r.read(location, f)
}

func (r retriever) getHttp(ctx context.Context, uri string) (string, error) {
	var req *http.Request
	var res *http.Response
	var err error

	if req, err = http.NewRequestWithContext(ctx, "GET", uri, nil); err != nil {
		return "", RetrieveErr{uri, err.Error(), err}
	} else {
		if len(r.username) > 0 {
			req.SetBasicAuth(r.username, r.password)
		}
		if len(r.useragent) > 0 {
			req.Header.Add("User-Agent", r.useragent)
		}
		req.Header.Add("Accept", fmt.Sprintf("%s, %s;q=0.9", N3MediaType, TurtleMediaType))
	}

	if res, err = r.httpClient.Do(req); err != nil {
		return "", RetrieveErr{uri, fmt.Sprintf("error executing GET: %s", err), err}
	}

	defer func() { res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := ioutil.ReadAll(io.LimitReader(res.Body, 1024))
		return "", RetrieveErr{Location: uri, Message: fmt.Sprintf("status code %d: %s", res.StatusCode, strings.TrimSpace(string(body)))}
	}

	return r.read(uri, res.Body)
}

func (r retriever) read(location string, in io.Reader) (string, error) {
	if in == nil {
		return "", RetrieveErr{Location: location, Message: "no reader available"}
	}

	buf, err := ioutil.ReadAll(io.LimitReader(in, maxBodyBytes+1))
	if err != nil {
		return "", RetrieveErr{location, fmt.Sprintf("error reading: %s", err), err}
	}

	if len(buf) > maxBodyBytes {
		return "", RetrieveErr{Location: location, Message: fmt.Sprintf("document exceeds %d bytes", maxBodyBytes)}
	}

	return string(buf), nil
}

func isHttp(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Creates a new Retriever instance with the supplied client.  The remaining parameters may be empty strings.
// If supplied, the username and password will be added to each request in an Authorization header.  If the useragent
// string is supplied, each request will use that value in the User-Agent header.  Standard input is read from
// os.Stdin.
func New(httpClient *http.Client, username, password, useragent string) Retriever {
	return NewWithStdin(httpClient, username, password, useragent, os.Stdin)
}

// Like New, but standard input is read from the supplied reader
func NewWithStdin(httpClient *http.Client, username, password, useragent string, stdin io.Reader) Retriever {
	r := retriever{
		httpClient: httpClient,
		username:   username,
		password:   password,
		useragent:  useragent,
		stdin:      stdin,
	}

	return r
}

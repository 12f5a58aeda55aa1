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

// Runs N3 rules through an external reasoner, by default EYE (https://github.com/eyereasoner/eye).  The reasoner is
// given the N3 document as a file and is expected to write its conclusions, as N3, to standard output.
package reason

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/exec"
	"strings"
)

// Arguments passed to EYE ahead of the document path: no proof explanation, output the deductive closure (asserted
// and derived triples, without the rules, which the N3 parser cannot read), suppress banner output.
var DefaultArgs = []string{"--nope", "--pass", "--quiet"}

var ErrReasonerFailed = errors.New("reason: reasoner failed")

// Answers the N3 conclusions of reasoning over the supplied N3 document
type Runner interface {
	Run(ctx context.Context, n3 string) (string, error)
}

type ReasonerErr struct {
	Command  string
	ExitCode int
	Stderr   string
	Wrapped  error
}

func (re ReasonerErr) Error() string {
	return fmt.Sprintf("reason: %s exited with status %d: %s", re.Command, re.ExitCode, strings.TrimSpace(re.Stderr))
}

func (re ReasonerErr) Unwrap() error {
	return re.Wrapped
}

func (re ReasonerErr) Is(target error) bool {
	return target == ErrReasonerFailed
}

type Reasoner struct {
	// executable, resolved against PATH when it contains no path separator
	Command string
	// arguments preceding the path of the N3 document
	Args []string
	// working directory of the reasoner, the current directory when empty
	Dir string
}

// Answers a Reasoner invoking the command with DefaultArgs
func New(command string) Reasoner {
	return Reasoner{
		Command: command,
		Args:    append([]string{}, DefaultArgs...),
	}
}

func (r Reasoner) Run(ctx context.Context, n3 string) (string, error) {
	var tmp *os.File
	var err error

	if tmp, err = ioutil.TempFile("", "n3fmt-*.n3"); err != nil {
		return "", fmt.Errorf("reason: error creating temporary file: %w", err)
	}

	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			log.Printf("reason: error removing %s: %v", tmp.Name(), err)
		}
	}()

	if _, err = tmp.WriteString(n3); err != nil {
		tmp.Close()
		return "", fmt.Errorf("reason: unable to write %s: %w", tmp.Name(), err)
	}

	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("reason: error closing %s: %w", tmp.Name(), err)
	}

	stdout := bytes.Buffer{}
	stderr := bytes.Buffer{}

	cmd := exec.CommandContext(ctx, r.Command, append(append([]string{}, r.Args...), tmp.Name())...)
	cmd.Dir = r.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err = cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ReasonerErr{r.Command, -1, stderr.String(), ctxErr}
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", ReasonerErr{r.Command, exitErr.ExitCode(), stderr.String(), err}
		}

		// the command could not be started at all
		return "", fmt.Errorf("reason: unable to execute %s: %w", r.Command, err)
	}

	if stderr.Len() > 0 {
		log.Printf("reason: %s: %s", r.Command, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

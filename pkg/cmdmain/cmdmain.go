/*
Copyright 2013 The Retrievalcore Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package cmdmain contains the shared implementation for idxbuild,
// idxquery, and other retrievalcore command-line tools.
package cmdmain

import (
	"flag"
	"fmt"
	"io"
	"os"

	"retrievalcore.dev/pkg/buildinfo"
)

var (
	FlagVersion = flag.Bool("version", false, "show version")
	FlagVerbose = flag.Bool("verbose", false, "extra debug logging")
)

// ExitWithFailure suppresses the generic "Error: " line Main prints for a
// non-usage error; Main still exits with status 2. Set it before
// returning an error from Main's fn if the error was already logged.
var ExitWithFailure bool

var ErrUsage = UsageError("invalid command")

// UsageError is returned by Main's fn to signal that its usage message
// should be printed instead of a bare error.
type UsageError string

func (ue UsageError) Error() string {
	return "Usage error: " + string(ue)
}

var (
	// Indirections for replacement by tests.
	Stderr io.Writer = os.Stderr
	Stdout io.Writer = os.Stdout
	Stdin  io.Reader = os.Stdin

	Exit = realExit
)

func realExit(code int) {
	os.Exit(code)
}

// Errorf prints to Stderr.
func Errorf(format string, args ...interface{}) {
	fmt.Fprintf(Stderr, format, args...)
}

// Verbosef prints to Stderr only when -verbose was passed.
func Verbosef(format string, args ...interface{}) {
	if *FlagVerbose {
		fmt.Fprintf(Stderr, format, args...)
	}
}

// Main runs fn after parsing flags, handling -version and the common
// exit-code conventions shared by every retrievalcore command. fn returns
// a UsageError to have its usage printed, any other non-nil error to fail
// with a bare "Error: " message, or nil on success.
func Main(usage func(), fn func(args []string) error) {
	flag.Usage = usage
	flag.Parse()

	if *FlagVersion {
		fmt.Fprintf(Stderr, "%s version: %s\n", os.Args[0], buildinfo.Summary())
		return
	}

	err := fn(flag.Args())
	if err == nil {
		return
	}
	if ue, isUsage := err.(UsageError); isUsage {
		Errorf("%s\n", ue)
		usage()
		Exit(1)
		return
	}
	if !ExitWithFailure {
		// Already logged if ExitWithFailure was set by the caller.
		Errorf("Error: %v\n", err)
	}
	Exit(2)
}

/*
Copyright 2024 The Retrievalcore Authors

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

package buildinfo

import "testing"

func TestSummary(t *testing.T) {
	defer func(v, g string) { Version, GitInfo = v, g }(Version, GitInfo)

	Version, GitInfo = "", ""
	if got := Summary(); got != "unknown" {
		t.Errorf("Summary() with nothing set = %q, want %q", got, "unknown")
	}

	Version, GitInfo = "1.0", ""
	if got := Summary(); got != "1.0" {
		t.Errorf("Summary() with only Version set = %q, want %q", got, "1.0")
	}

	Version, GitInfo = "", "abc123"
	if got := Summary(); got != "abc123" {
		t.Errorf("Summary() with only GitInfo set = %q, want %q", got, "abc123")
	}

	Version, GitInfo = "1.0", "abc123"
	if got := Summary(); got != "1.0, abc123" {
		t.Errorf("Summary() with both set = %q, want %q", got, "1.0, abc123")
	}
}

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

// Package idxconfig defines the JSON configuration objects the idxbuild
// and idxquery command-line tools load to find their inputs: run files,
// the index and lexicon paths, and the sidecar stats directory.
package idxconfig

import (
	"fmt"

	"retrievalcore.dev/pkg/jsonconfig"
)

// BuildConfig points idxbuild at its run files and its output paths.
type BuildConfig struct {
	RunPaths    []string
	Compressed  bool
	IndexPath   string
	LexiconPath string
}

// LoadBuildConfig reads and validates a BuildConfig from path.
func LoadBuildConfig(path string) (*BuildConfig, error) {
	obj, err := jsonconfig.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("idxconfig: %w", err)
	}
	cfg := &BuildConfig{
		RunPaths:    obj.RequiredList("runs"),
		Compressed:  obj.OptionalBool("compressed", false),
		IndexPath:   obj.RequiredString("indexPath"),
		LexiconPath: obj.RequiredString("lexiconPath"),
	}
	if err := obj.Validate(); err != nil {
		return nil, fmt.Errorf("idxconfig: %w", err)
	}
	return cfg, nil
}

// QueryConfig points idxquery at a built index plus the sidecar stats
// directory it needs to answer queries and render TREC-style output.
type QueryConfig struct {
	IndexPath   string
	LexiconPath string
	StatsDir    string
	BlockCache  int // 0 disables the encoded-block cache.
	Conjunctive bool
	TopK        int
}

// LoadQueryConfig reads and validates a QueryConfig from path.
func LoadQueryConfig(path string) (*QueryConfig, error) {
	obj, err := jsonconfig.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("idxconfig: %w", err)
	}
	cfg := &QueryConfig{
		IndexPath:   obj.RequiredString("indexPath"),
		LexiconPath: obj.RequiredString("lexiconPath"),
		StatsDir:    obj.RequiredString("statsDir"),
		BlockCache:  obj.OptionalInt("blockCache", 0),
		Conjunctive: obj.OptionalBool("conjunctive", false),
		TopK:        obj.OptionalInt("topK", 10),
	}
	if err := obj.Validate(); err != nil {
		return nil, fmt.Errorf("idxconfig: %w", err)
	}
	return cfg, nil
}

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

// idxbuild merges a set of sorted run files into a block-compressed
// index and its lexicon.
package main

import (
	"flag"
	"fmt"
	"path/filepath"

	"retrievalcore.dev/pkg/cmdmain"
	"retrievalcore.dev/pkg/idxconfig"
	"retrievalcore.dev/pkg/merge"
)

var (
	flagConfig  = flag.String("config", "", "path to a JSON idxconfig.BuildConfig")
	flagGlob    = flag.String("runs", "", "glob of run files to merge (overrides -config's \"runs\" list)")
	flagIndex   = flag.String("index", "", "output index path (overrides -config)")
	flagLexicon = flag.String("lexicon", "", "output lexicon path (overrides -config)")
)

func usage() {
	cmdmain.Errorf("Usage: idxbuild -config=build.json\n")
	cmdmain.Errorf("   or: idxbuild -runs='runs/*.txt' -index=index.bin -lexicon=lexicon.txt\n")
}

func main() {
	cmdmain.Main(usage, run)
}

func run(args []string) error {
	var cfg idxconfig.BuildConfig
	if *flagConfig != "" {
		loaded, err := idxconfig.LoadBuildConfig(*flagConfig)
		if err != nil {
			return fmt.Errorf("idxbuild: %w", err)
		}
		cfg = *loaded
	}
	if *flagGlob != "" {
		matches, err := filepath.Glob(*flagGlob)
		if err != nil {
			return fmt.Errorf("idxbuild: expanding -runs glob: %w", err)
		}
		cfg.RunPaths = matches
	}
	if *flagIndex != "" {
		cfg.IndexPath = *flagIndex
	}
	if *flagLexicon != "" {
		cfg.LexiconPath = *flagLexicon
	}
	if len(cfg.RunPaths) == 0 {
		return cmdmain.UsageError("no run files given (pass -runs or a -config with a \"runs\" list)")
	}
	if cfg.IndexPath == "" || cfg.LexiconPath == "" {
		return cmdmain.UsageError("both an index path and a lexicon path are required")
	}

	sources := make([]merge.RunSource, len(cfg.RunPaths))
	for i, p := range cfg.RunPaths {
		sources[i] = merge.RunSource{Path: p, Compressed: cfg.Compressed}
	}
	cmdmain.Verbosef("idxbuild: merging %d run(s) into %s\n", len(sources), cfg.IndexPath)
	if err := merge.Run(sources, cfg.IndexPath, cfg.LexiconPath); err != nil {
		return fmt.Errorf("idxbuild: %w", err)
	}
	cmdmain.Verbosef("idxbuild: wrote %s and %s\n", cfg.IndexPath, cfg.LexiconPath)
	return nil
}

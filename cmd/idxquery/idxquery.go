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

// idxquery answers a batch of queries against a built index and prints
// TREC-style ranked output, one line per (query, document) pair.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"retrievalcore.dev/pkg/cmdmain"
	"retrievalcore.dev/pkg/corpus"
	"retrievalcore.dev/pkg/idxconfig"
	"retrievalcore.dev/pkg/postings/blockcache"
	"retrievalcore.dev/pkg/query"
)

var (
	flagConfig      = flag.String("config", "", "path to a JSON idxconfig.QueryConfig")
	flagQueries     = flag.String("queries", "", "path to a TSV file of queryID<TAB>text lines")
	flagConcurrency = flag.Int("concurrency", 8, "number of queries to evaluate concurrently")
)

func usage() {
	cmdmain.Errorf("Usage: idxquery -config=query.json -queries=queries.tsv\n")
}

type parsedQuery struct {
	id    string
	terms []string
}

func main() {
	cmdmain.Main(usage, run)
}

func run(args []string) error {
	if *flagConfig == "" || *flagQueries == "" {
		return cmdmain.UsageError("both -config and -queries are required")
	}
	cfg, err := idxconfig.LoadQueryConfig(*flagConfig)
	if err != nil {
		return fmt.Errorf("idxquery: %w", err)
	}
	queries, err := readQueries(*flagQueries)
	if err != nil {
		return fmt.Errorf("idxquery: %w", err)
	}

	snap, err := corpus.Load(cfg.IndexPath, cfg.LexiconPath, cfg.StatsDir)
	if err != nil {
		return fmt.Errorf("idxquery: %w", err)
	}
	var cache *blockcache.Cache
	if cfg.BlockCache > 0 {
		cache = blockcache.New(cfg.BlockCache)
		cmdmain.Verbosef("idxquery: block cache enabled, capacity %d\n", cfg.BlockCache)
	}

	results := make([][]query.Result, len(queries))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*flagConcurrency)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			ev := snap.NewEvaluator()
			if cache != nil {
				ev.Cache = cache
			}
			var (
				res []query.Result
				err error
			)
			if cfg.Conjunctive {
				res, err = ev.Conjunctive(ctx, q.terms, cfg.TopK)
			} else {
				res, err = ev.Disjunctive(ctx, q.terms, cfg.TopK)
			}
			if err != nil {
				return fmt.Errorf("query %s: %w", q.id, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("idxquery: %w", err)
	}

	w := bufio.NewWriter(cmdmain.Stdout)
	defer w.Flush()
	for i, q := range queries {
		writeTRECResults(w, q.id, results[i], snap)
	}
	return nil
}

func writeTRECResults(w *bufio.Writer, queryID string, results []query.Result, snap *corpus.Snapshot) {
	for rank, r := range results {
		external := snap.Stats.PageTable[r.DocID]
		if external == "" {
			external = fmt.Sprintf("%d", r.DocID)
		}
		fmt.Fprintf(w, "%s Q0 %s %d %.6f STANDARD\n", queryID, external, rank+1, r.Score)
	}
}

// readQueries parses a TSV file of "queryID<TAB>text" lines. Splitting
// text into terms is a bare whitespace/lowercase split, not a real
// tokenizer: the tokenizer that produced the run files this index was
// built from is a separate, upstream component.
func readQueries(path string) ([]parsedQuery, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var out []parsedQuery
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected queryID<TAB>text", path, lineNo)
		}
		out = append(out, parsedQuery{
			id:    fields[0],
			terms: strings.Fields(strings.ToLower(fields[1])),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return out, nil
}

// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package vectorstore

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/kraklabs/ckg/pkg/storage"
)

var _ storage.Backend = (*fakeBackend)(nil)

// fakeBackend is a minimal in-memory stand-in for storage.Backend, covering
// only the CozoScript shapes this package emits (:create/:insert/:put/:rm,
// ::hnsw create, ::remove, ::relations, and plain/HNSW scans). It exists so
// vectorstore's logic can be tested without the CGO-linked CozoDB library,
// the same way storage.Backend being an interface lets graphstore and
// vectorstore depend on it rather than on *storage.EmbeddedBackend directly.
type fakeBackend struct {
	mu    sync.Mutex
	rows  map[string][]fakeRow
	dims  map[string]int
	hnsw  map[string]bool
	fail  map[string]error // script substring -> forced error, for failure-path tests
}

type fakeRow struct {
	id        string
	content   string
	embedding []float32
	metadata  string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		rows: make(map[string][]fakeRow),
		dims: make(map[string]int),
		hnsw: make(map[string]bool),
		fail: make(map[string]error),
	}
}

var (
	createRe  = regexp.MustCompile(`:create\s+(\w+)\s*\{.*<F32;\s*(\d+)\s*>`)
	hnswRe    = regexp.MustCompile(`::hnsw create\s+(\w+):hnsw_idx`)
	removeRe  = regexp.MustCompile(`::remove\s+(\w+)`)
	mutateRe  = regexp.MustCompile(`:(insert|put)\s+(\w+)`)
	rmRe      = regexp.MustCompile(`:rm\s+(\w+)`)
	countRe   = regexp.MustCompile(`\*(\w+)\{id\}`)
	scanRe    = regexp.MustCompile(`\*(\w+)\{id, content, embedding, metadata\}`)
	searchRe  = regexp.MustCompile(`~(\w+):hnsw_idx\{`)
)

func (f *fakeBackend) forcedErr(script string) error {
	for substr, err := range f.fail {
		if strings.Contains(script, substr) {
			return err
		}
	}
	return nil
}

func (f *fakeBackend) Execute(ctx context.Context, script string, params map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.forcedErr(script); err != nil {
		return err
	}

	switch {
	case strings.HasPrefix(script, ":create"):
		m := createRe.FindStringSubmatch(script)
		if m == nil {
			return fmt.Errorf("fakeBackend: unrecognized :create script: %s", script)
		}
		rel, dim := m[1], m[2]
		if _, exists := f.rows[rel]; exists {
			return fmt.Errorf("relation %s already exists", rel)
		}
		f.rows[rel] = []fakeRow{}
		d, _ := strconv.Atoi(dim)
		f.dims[rel] = d
		return nil

	case strings.HasPrefix(script, "::hnsw create"):
		m := hnswRe.FindStringSubmatch(script)
		if m == nil {
			return fmt.Errorf("fakeBackend: unrecognized ::hnsw create script: %s", script)
		}
		rel := m[1]
		if f.hnsw[rel] {
			return fmt.Errorf("index %s:hnsw_idx already exists", rel)
		}
		f.hnsw[rel] = true
		return nil

	case strings.HasPrefix(script, "::remove"):
		m := removeRe.FindStringSubmatch(script)
		if m == nil {
			return fmt.Errorf("fakeBackend: unrecognized ::remove script: %s", script)
		}
		rel := m[1]
		if _, ok := f.rows[rel]; !ok {
			return fmt.Errorf("relation %s not found", rel)
		}
		delete(f.rows, rel)
		delete(f.dims, rel)
		delete(f.hnsw, rel)
		return nil

	case mutateRe.MatchString(script):
		m := mutateRe.FindStringSubmatch(script)
		kind, rel := m[1], m[2]
		rowsParam, _ := params["rows"].([][]any)
		for _, r := range rowsParam {
			id, _ := r[0].(string)
			content, _ := r[1].(string)
			embAny, _ := r[2].([]any)
			emb := make([]float32, len(embAny))
			for i, v := range embAny {
				switch n := v.(type) {
				case float32:
					emb[i] = n
				case float64:
					emb[i] = float32(n)
				}
			}
			meta, _ := r[3].(string)
			newRow := fakeRow{id: id, content: content, embedding: emb, metadata: meta}

			existingIdx := -1
			for i, existing := range f.rows[rel] {
				if existing.id == id {
					existingIdx = i
					break
				}
			}
			if kind == "insert" && existingIdx >= 0 {
				return fmt.Errorf("document %s already exists in %s", id, rel)
			}
			if existingIdx >= 0 {
				f.rows[rel][existingIdx] = newRow
			} else {
				f.rows[rel] = append(f.rows[rel], newRow)
			}
		}
		return nil

	case rmRe.MatchString(script):
		m := rmRe.FindStringSubmatch(script)
		rel := m[1]
		idsParam, _ := params["ids"].([][]any)
		toDelete := make(map[string]bool, len(idsParam))
		for _, r := range idsParam {
			id, _ := r[0].(string)
			toDelete[id] = true
		}
		var kept []fakeRow
		for _, row := range f.rows[rel] {
			if !toDelete[row.id] {
				kept = append(kept, row)
			}
		}
		f.rows[rel] = kept
		return nil
	}

	return fmt.Errorf("fakeBackend: unrecognized script: %s", script)
}

func (f *fakeBackend) Query(ctx context.Context, script string, params map[string]any) (*storage.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.forcedErr(script); err != nil {
		return nil, err
	}

	switch {
	case script == "::relations":
		headers := []string{"name"}
		var out [][]any
		names := make([]string, 0, len(f.rows))
		for name := range f.rows {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, n := range names {
			out = append(out, []any{n})
		}
		return &storage.QueryResult{Headers: headers, Rows: out}, nil

	case countRe.MatchString(script):
		m := countRe.FindStringSubmatch(script)
		rel := m[1]
		return &storage.QueryResult{
			Headers: []string{"count(id)"},
			Rows:    [][]any{{len(f.rows[rel])}},
		}, nil

	case scanRe.MatchString(script):
		m := scanRe.FindStringSubmatch(script)
		rel := m[1]
		var out [][]any
		for _, row := range f.rows[rel] {
			emb := make([]any, len(row.embedding))
			for i, v := range row.embedding {
				emb[i] = v
			}
			out = append(out, []any{row.id, row.content, emb, row.metadata})
		}
		return &storage.QueryResult{
			Headers: []string{"id", "content", "embedding", "metadata"},
			Rows:    out,
		}, nil

	case searchRe.MatchString(script):
		m := searchRe.FindStringSubmatch(script)
		rel := m[1]
		queryAny, _ := params["query"].([]any)
		query := make([]float32, len(queryAny))
		for i, v := range queryAny {
			switch n := v.(type) {
			case float32:
				query[i] = n
			case float64:
				query[i] = float32(n)
			}
		}
		k, _ := params["k"].(int)
		if k <= 0 {
			k = len(f.rows[rel])
		}

		type scored struct {
			dist float64
			row  fakeRow
		}
		var scoredRows []scored
		for _, row := range f.rows[rel] {
			scoredRows = append(scoredRows, scored{dist: cosineDistance(query, row.embedding), row: row})
		}
		sort.Slice(scoredRows, func(i, j int) bool { return scoredRows[i].dist < scoredRows[j].dist })
		if len(scoredRows) > k {
			scoredRows = scoredRows[:k]
		}

		var out [][]any
		for _, sr := range scoredRows {
			out = append(out, []any{sr.dist, sr.row.id, sr.row.content, sr.row.metadata})
		}
		return &storage.QueryResult{
			Headers: []string{"dist", "id", "content", "metadata"},
			Rows:    out,
		}, nil
	}

	return nil, fmt.Errorf("fakeBackend: unrecognized query: %s", script)
}

func (f *fakeBackend) Close() error { return nil }

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return 1 - cos
}

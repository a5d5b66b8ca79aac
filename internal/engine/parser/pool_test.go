package parser

import (
	"fmt"
	"sync"
	"testing"

	"autosg/internal/shared/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func inUse(tag string) float64 {
	return testutil.ToFloat64(observability.ParsersInUse.WithLabelValues(tag))
}

func TestParserPool_GaugeTracksCheckouts(t *testing.T) {
	loader, err := NewGrammarLoader("", false)
	if err != nil {
		t.Fatal(err)
	}
	grammar, err := loader.Language("rust")
	if err != nil {
		t.Fatal(err)
	}
	pool := NewParserPool("rust", grammar)
	if pool.Tag() != "rust" {
		t.Fatalf("unexpected tag %q", pool.Tag())
	}

	before := inUse("rust")
	a, b := pool.Get(), pool.Get()
	if got := inUse("rust") - before; got != 2 {
		t.Fatalf("expected 2 parsers in use, got %v", got)
	}
	pool.Put(a)
	pool.Put(b)
	pool.Put(nil)
	if got := inUse("rust") - before; got != 0 {
		t.Fatalf("expected all parsers returned, got %v in use", got)
	}
}

func TestExtract_ReusesPoolAcrossFilesAndLanguages(t *testing.T) {
	ex := newTestExtractor(t)

	inputs := []struct {
		lang string
		src  string
		want []string
	}{
		{"python", "a = b\n", []string{"a", "b"}},
		{"go", "package p\nvar x = y\n", []string{"p", "x", "y"}},
		{"python", "c = d\n", []string{"c", "d"}},
		{"go", "package q\n", []string{"q"}},
	}
	for i, in := range inputs {
		occs, err := ex.Extract([]byte(in.src), in.lang)
		if err != nil {
			t.Fatalf("input %d: %v", i, err)
		}
		if got := texts(occs); fmt.Sprint(got) != fmt.Sprint(in.want) {
			t.Fatalf("input %d (%s): expected %v, got %v", i, in.lang, in.want, got)
		}
	}

	if len(ex.pools) != 2 {
		t.Fatalf("expected one pool per language, got %d", len(ex.pools))
	}
	for _, tag := range []string{"python", "go"} {
		if inUse(tag) != 0 {
			t.Fatalf("expected no %s parsers left checked out", tag)
		}
	}
}

func TestExtract_Concurrent(t *testing.T) {
	ex := newTestExtractor(t)

	const workers = 16
	const iters = 25

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			lang, src, want := "python", fmt.Sprintf("v%d = v%d + 1\n", w, w), 2
			if w%2 == 1 {
				lang, src, want = "go", fmt.Sprintf("package p\nvar v%d = w\n", w), 3
			}
			for i := 0; i < iters; i++ {
				occs, err := ex.Extract([]byte(src), lang)
				if err != nil {
					errs <- err
					return
				}
				if len(occs) != want {
					errs <- fmt.Errorf("%s worker %d: expected %d identifiers, got %d", lang, w, want, len(occs))
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

// Package testutil provides testing utilities for canonify.
//
// This package is intended for use in tests and examples only. It provides a
// deterministic RNG, fake providers and generators for noisy categorical data.
//
// # Fake Providers
//
//	emb := testutil.NewFakeEmbedder(64, 4711,
//	    []string{"New York", "NYC", "NY"},
//	    []string{"Boston", "BOS"},
//	)
//	llm := &testutil.FakeLLM{Score: testutil.ExactFold}
//
// # Noisy Columns
//
//	rng := testutil.NewRNG(4711)
//	values := rng.NoisyColumn([][]string{{"Yes", "yes", "YES"}, {"No", "no"}}, 1000, 0.05)
package testutil

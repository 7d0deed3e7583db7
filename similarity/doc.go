// Package similarity computes symmetric pairwise similarity matrices over the distinct
// values of a column.
//
// Three backends implement Backend:
//
//   - Character: token-sorted edit similarity (typos, spacing, word order)
//   - Semantic: cosine similarity of provider embeddings (abbreviations, synonyms)
//   - LLM: model-scored pairs (equivalences beyond embeddings, unit conversion)
//
// Every Matrix is n×n, symmetric, has 1 on the diagonal and entries in [0,1].
// Inputs with fewer than two values yield the identity without any provider call.
package similarity

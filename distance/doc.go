// Package distance provides the vector operations used by semantic similarity.
//
// Embedding providers return unit-length vectors, so cosine similarity reduces to a
// dot product. NormalizeL2InPlace is applied to every fetched vector anyway, which
// keeps that identity true for providers that do not normalise.
//
// # Usage
//
//	distance.NormalizeL2InPlace(vec)
//	sim := distance.Dot(a, b) // cosine for unit vectors
package distance

// Package textutil provides fuzzy matching for short identifiers such as
// category ids and material names.
//
// Fingerprints are character trigram frequency vectors. Text is lowercased,
// runs of non-alphanumeric characters collapse to a single space and the
// result is padded with one space on each side so leading and trailing
// characters carry weight. Fingerprints compare with cosine similarity.
package textutil

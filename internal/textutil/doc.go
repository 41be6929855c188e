// Package textutil compares recipe texts.
//
// Texts are reduced to term-frequency fingerprints: lowercased words of at
// least three letters, with quantities, units and filler words dropped so
// that two cards for the same dish match even when their amounts differ.
// Rank weights fingerprints by inverse document frequency across the
// library before scoring with cosine similarity.
package textutil

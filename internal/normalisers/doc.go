// Package normalisers provides text normalisation for raw transcript
// content before it enters the cleaning pipeline. Normalisation strips
// export boilerplate and collapses whitespace so that equal conversations
// produce equal chunk fingerprints regardless of export formatting.
package normalisers

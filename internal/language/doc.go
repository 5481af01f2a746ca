// Package language validates and canonicalizes the language hint passed to the
// transcription provider.
//
// Hints are BCP 47 tags ("en", "pt-BR") or the literal "auto", which leaves
// detection to the provider.
package language

// Package domain owns the domain-name pattern shared by every rendition of the
// form guard (browser script, wasm guard, terminal prompt) and the parser the
// estimator uses to break a name into label, TLD and structure.
//
// The pattern is deliberately simple. It accepts names such as example.com and
// sub.example.co, rejects single-label hosts, labels longer than 63 characters,
// labels with a leading or trailing hyphen and anything outside ASCII.
// Internationalized names are not converted and are therefore rejected.
package domain

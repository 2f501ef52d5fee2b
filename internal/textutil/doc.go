// Package textutil provides the text transforms used to build filenames from
// content labels.
//
// SanitizeStem is pure and deterministic: NFC normalization, illegal
// character removal, whitespace and underscore collapsing, and a rune-based
// length bound. CollapseWhitespace normalizes extracted document text before
// it is used as a label.
package textutil

// Package manifest reads and writes path/label manifests: plain text files
// with one "path<delimiter>label" record per line and no header. The
// delimiter follows the file extension (.txt space, .csv comma, .tsv tab)
// unless the caller overrides it.
package manifest

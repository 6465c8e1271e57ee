// Package loader extracts raw text segments from source documents.
// It is the boundary to document parsing: PDF and plain-text files are
// supported, with extraction delegated to langchaingo document loaders.
//
// A missing or unreadable source is a permanent load failure; retrying a
// run cannot fix it.
package loader

// Package timestamps derives segment boundaries for a source, preferring the
// embedded chapter list and falling back to time markers written in the
// free-text description.
//
// Results are always sorted strictly ascending by offset with duplicates
// removed. An empty result means "deliver the whole file".
package timestamps

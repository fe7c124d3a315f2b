// Package textutil provides text helpers shared by the acquisition and
// segmentation stages: filename sanitizing, track label cleanup, and
// rune-safe truncation.
//
// Sanitizing preserves Unicode. Names are NFC-normalized and only characters
// that are illegal or awkward in file names are replaced or removed, so titles
// in any script survive intact.
package textutil

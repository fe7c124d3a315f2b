// Package status maintains the single pinned status message each user sees.
//
// Reporter coalesces updates: unforced updates inside the minimum interval are
// dropped, and progress-bar updates that moved less than the minimum delta
// are dropped too. Emission edits the message recorded in the user registry,
// falling back to sending (and pinning) a new one when the old message is
// gone. Transport throttling is honoured once; a second failure is logged and
// swallowed. Unreachable users are deactivated in the registry.
package status

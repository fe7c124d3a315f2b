// Package bot is the chat command layer. It turns incoming Bot API updates
// into session changes and pipeline submissions: /start registers the user,
// a link produces a download menu, and menu buttons toggle options, cancel,
// or launch the job.
package bot

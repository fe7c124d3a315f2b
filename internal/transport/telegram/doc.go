// Package telegram adapts the Telegram Bot API to transport.Messenger and
// exposes the inline-keyboard and update-polling calls the chat layer needs.
//
// Every outbound request waits on a shared token bucket sized from
// telegram.messages_per_second. API errors are classified into the transport
// sentinels so callers never inspect Bot API error strings.
package telegram

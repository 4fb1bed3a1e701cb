// Package assistant is a thin prompt-formatting wrapper around a
// chat-completion endpoint for asking questions about catalog records.
package assistant

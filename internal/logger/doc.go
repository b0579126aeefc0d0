// Package logger separates gitguard's debug log from what the user sees.
//
// Debug messages (Info, Warning, Error) go to a slog text handler backed by
// a file when debug logging is enabled. User-facing messages (InfoToUser,
// WarningToUser, Success, Error) are printed with an icon prefix and
// coloured with lipgloss when the destination is a terminal. Commit
// suggestions from the watcher are WarningToUser messages.
package logger

// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger writing to stderr with a console or JSON encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level and format parsing for CLI flags,
//   - convenience functions (InfoKV, WarnKV, etc.).
//
// Services accept a context and extract the logger from it, so every storage
// operation logs with the command name and its own key-value scope.
package logger

// Package logger wraps zap for the site-environment process:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - runtime level control and parsing,
//   - leveled helpers (Infof, WarnKV, ErrorKV, etc.).
//
// Services receive a context and log through the logger stored in it, so a
// component name attached once with WithName shows up on every line.
package logger

package slogx

import (
	"fmt"
	"log/slog"
)

// Error returns a slog.Attr representing the provided error.
// The attribute key is "error" and the value is the error's message.
//
// Parameters:
//   - err: The error to be converted into a slog.Attr.
//
// Returns:
//   - slog.Attr: An attribute with the key "error" and the error's message as the value.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Stringer creates a slog.Attr with the provided key and the string representation
// of the given fmt.Stringer value. This is how events and message IDs end up in
// log lines, since both render themselves.
//
// Parameters:
//   - key: A string representing the key for the attribute.
//   - value: An object that implements the fmt.Stringer interface.
//
// Returns:
//   - slog.Attr: An attribute containing the key and the string representation of the value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// Message groups the identity of a message kind under the "message" key.
//
// Parameters:
//   - name: The full name of the message, e.g. "ardrone3.Piloting.TakeOff".
//   - id: The message ID, anything printable.
//
// Returns:
//   - slog.Attr: A group attribute with "name" and "id" members.
func Message(name string, id fmt.Stringer) slog.Attr {
	return slog.Group("message", slog.String("name", name), slog.String("id", id.String()))
}

// Count creates an integer attribute under the "count" key.
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

const (
	// KeyLoggerName is the key for the logger name attribute.
	KeyLoggerName = "logger"
)

// LoggerName creates a slog.Attr with the provided logger name.
// The attribute key is defined by KeyLoggerName.
//
// Parameters:
//   - name: The name of the logger.
//
// Returns:
//
//	A slog.Attr containing the logger name.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// Event groups the identity and the rendering of an event under the "event"
// key.
func Event(id fmt.Stringer, text string) slog.Attr {
	return slog.Group("event", slog.String("id", id.String()), slog.String("text", text))
}

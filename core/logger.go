package core

// Logger reports app events to stdout and/or an external monitoring service.
// Besides the message, args may carry an error, a context map, or the
// resolved profile of the acting account; implementations pick out what they
// understand (e.g. the rollbar logger attaches the profile as the person) and
// print the rest.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

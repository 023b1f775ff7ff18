package core

// Logger logs application events.
// expected args: map[string]interface{} or any value worth dumping with the message.
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, err error, args ...interface{})
	Enable(enabled bool)
}

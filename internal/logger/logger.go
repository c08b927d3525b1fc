// Package logger is a small facade dispatching structured log calls to one
// or more backends. Until Init is called every call is a no-op, so library
// code can log unconditionally.
package logger

import "sync"

// Instance is a logging backend
type Instance interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
}

// Logger holds the configured backends
type Logger struct {
	instances []Instance
}

var (
	mu        sync.RWMutex
	singleton *Logger
)

func get() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return singleton
}

// Init installs the backends. Calling Init with no arguments silences logging.
func Init(instances ...Instance) {
	mu.Lock()
	defer mu.Unlock()
	if len(instances) == 0 {
		singleton = nil
		return
	}
	singleton = &Logger{instances: instances}
}

// Debug writes a message at DEBUG level to all backends
func Debug(message string, keyvals ...any) {
	l := get()
	if l == nil {
		return
	}
	for _, instance := range l.instances {
		instance.Debug(message, keyvals...)
	}
}

// Info writes a message at INFO level to all backends
func Info(message string, keyvals ...any) {
	l := get()
	if l == nil {
		return
	}
	for _, instance := range l.instances {
		instance.Info(message, keyvals...)
	}
}

// Warn writes a message at WARN level to all backends
func Warn(message string, keyvals ...any) {
	l := get()
	if l == nil {
		return
	}
	for _, instance := range l.instances {
		instance.Warn(message, keyvals...)
	}
}

// Error writes a message at ERROR level to all backends
func Error(message string, keyvals ...any) {
	l := get()
	if l == nil {
		return
	}
	for _, instance := range l.instances {
		instance.Error(message, keyvals...)
	}
}

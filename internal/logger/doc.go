// Package logger wraps zap with a process-wide sugared logger and an atomic level.
// Helpers accept a context so that item-scoped fields attached with WithKV
// follow an operation through the reconciler, the lifecycle manager and the player.
package logger

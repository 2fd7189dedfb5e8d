// Package recovery keeps the narrator running when components fail.
//
// Supervisor counts errors per named component (narration, ocr, model,
// accessibility). Once a component reaches its threshold it is rebuilt by
// its registered RestartFunc, at most once per cooldown, and the user is
// told. HealthCheck frees the context cache under memory pressure.
package recovery

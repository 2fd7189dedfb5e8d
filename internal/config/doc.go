// Package config loads focus-narrator settings.
//
// Settings come from three layers, later ones winning: built-in defaults, a
// YAML file (by default $XDG_CONFIG_HOME/focus-narrator/config.yaml) and
// FOCUS_NARRATOR_* environment variables, which may be seeded from a .env
// file.
package config

// Package config loads slotbook settings from an optional .env file and the
// process environment.
package config

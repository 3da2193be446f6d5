// Package config loads server, model, quiz, dataset and worker settings from
// an optional config.yaml and ADAPTIQ_* environment variables, then
// validates them.
package config

// Package config defines the whistle configuration document and provides
// helpers to load, validate and save it in JSON format.
//
// The document lives at ~/.config/whistle/config.json by default; the
// directory can be moved with WHISTLE_CONFIG_DIR and any command accepts an
// explicit path. It holds LLM endpoint settings, alert destinations, journal
// source selection, and the ignore rule list.
package config

// Package main hosts the taggerd CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the daemon in the foreground (serve) and
// talks to a running daemon over its HTTP API for everything else: tagging
// images, listing and unloading models, browsing interrogation history, and
// configuration scaffolding. Configuration resolution and API address
// discovery are centralized so subcommands can focus on user experience.
package main

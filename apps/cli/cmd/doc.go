// Package cmd implements the hitdraft CLI commands using Cobra.
//
// Available commands:
//   - send: Compose a request from flags and send it
//   - run: Send a request described by a YAML draft file
//   - saved: List, show, send, export and delete saved requests
//   - import: Convert curl commands, Insomnia exports and Postman collections
//   - init: Create a config file and an example draft
//   - version: Show hitdraft version information
//
// Global flags select the config file, the saved-request store and logging.
// Most flags can also be set through HITDRAFT_* environment variables.
package cmd

// Package registry holds the command descriptors a registry module is
// generated from.
//
// A Registry is an ordered list of commands plus one application record.
// Descriptors are usually loaded from a YAML, JSON or TOML file:
//
//	app:
//	  name: wacli
//	  version: 0.3.0
//	commands:
//	  - name: greet
//	    aliases: [g]
//	    summary: Say hello
//	    args:
//	      - name: name
//	        kind: positional
//	        required: true
//
// Validate enforces the build-time rules: command names and aliases are
// unique across the registry, argument names are unique per command, and
// every conflicts-with or requires entry names an argument of the same
// command. Declaration order is significant; the generated dispatch tries
// commands, and aliases within a command, in that order.
package registry

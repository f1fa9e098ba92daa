// Package riskscan provides the command-line interface for the riskscan tool.
// It configures subcommands (scan, rules, config, etc.), parses flags, and
// executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/redactyl/riskscan/cmd/riskscan"
//	func main() { riskscan.Execute() }
package riskscan

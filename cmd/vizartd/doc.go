// Command vizartd runs the Vizart processing daemon and provides operator
// subcommands for submitting, inspecting, and cleaning up try-on and try-off
// jobs.
package main

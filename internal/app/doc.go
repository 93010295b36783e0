// Package app wires the process together: it configures logging, loads
// node-type manifests and templates, and drives the compiler over the
// recipe named on the command line.
package app

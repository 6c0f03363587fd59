// Package process runs external programs on behalf of a conversation:
// allow-listed tools for rule templates and a responder that delegates
// each sentence to a subprocess.
package process

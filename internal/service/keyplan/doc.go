// Package keyplan prints the storage keys a promotion would touch, without
// talking to storage. It is handy for checking custom key templates.
package keyplan

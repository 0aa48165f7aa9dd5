// Package citeproc resolves citation keys to rendered markup.
//
// Requests travel as envelopes ({command, payload}) addressed to the
// "citeproc-provider" channel. A Service answers them in process from a
// Library of CSL entries and a Formatter; a Remote forwards them to a
// provider process speaking JSON-RPC over stdio, and Serve is the other
// end of that pipe. Client wraps either behind typed calls.
package citeproc

// Package pipeline turns the fragments of one document into shortcodes.
//
// A Pipeline checks each fragment against the output of earlier runs, the
// fragments already seen in this run, and the fingerprint store. Fragments
// that pass all three are sent to the transformation service in batches.
// A batch is retried in rounds, each round resending only the fragments
// whose results were unusable, until every fragment is persisted or the
// round budget is spent.
//
// Every success is written to the fingerprint store before the document's
// output file, so an entry in the output always has a cache record behind
// it. Restarting a run with the same arguments skips the fragments already
// in the output.
package pipeline

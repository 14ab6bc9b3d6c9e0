// internal/nodeid/doc.go

/*
Package nodeid provides a structured representation for construct
identifiers, based on the canonical format `path`.

The format is a dot-separated sequence of segments, one per tree level,
where each segment below the root is the construct kind and its position
among its siblings, e.g., `program.data_step[0].do_block[2].assignment[0]`.

Identifiers are stable for identical input, which keeps report output
byte-identical across repeated runs.
*/
package nodeid

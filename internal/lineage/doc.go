// Package lineage derives dataset data flow from a construct tree: datasets
// are nodes, and every step that reads some datasets and writes others adds
// an edge from each input to each output.
package lineage

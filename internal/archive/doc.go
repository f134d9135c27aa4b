// Package archive exports point-in-time snapshots of the manuscript
// partitions and dashboard statistics to a local directory or an S3 bucket.
//
// An Archiver renders one JSON document per export and hands it to a Sink.
// Run repeats the export on a fixed interval until its context ends.
package archive

// Package naming computes where each output file goes.
//
// A Planner turns an input path, its batch position and the processing
// configuration into an output path:
//
//	<output dir>[/<path relative to common ancestor>]/<rendered pattern>[_N].mp3
//
// The output dir is the configured folder when it exists, otherwise the
// input's own directory. Folder-structure preservation, tag lookup and
// directory creation are best effort: a failure is logged and the optional
// behavior is skipped, never failing the file.
//
// Collision avoidance is checked against the filesystem at plan time and,
// within one Batch, against paths already handed to other inputs.
package naming

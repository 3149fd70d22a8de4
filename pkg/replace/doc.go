/*
Package replace holds the value types every other xform package passes around.

	+-------------+      +-----------------+
	| Replacement | <--- | ReplacementBatch|
	| (one edit)  |      | (one TU)        |
	+------+------+      +-----------------+
	       ^
	       |             +-----------------+
	       +------------ | DiagnosticBatch |
	                     | (first fix only)|
	                     +-----------------+

A Replacement is a byte span of the original file plus the text that takes
its place. Compare gives the total order the merger and applier rely on, and
Overlaps is the only notion of conflict: spans are half-open, insertions
collide only with each other at the same offset or when they land strictly
inside a removed span.
*/
package replace

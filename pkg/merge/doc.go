/*
Package merge turns collected edit batches into per-file change sets.

	 batches + diagnostics
	          |
	   +------+------+
	   |   Grouper   |  canonical path, first fix only,
	   |             |  diagnostic dedup, sorted
	   +------+------+
	          |  []FileEditSet
	   +------+------+
	   |    Merge    |  accept unless overlapping,
	   |             |  report every rejection
	   +------+------+
	          |  []*AtomicFileChange
	          v
	        apply

A file is written only when its change has no conflicts. Conflicts in one
file never stop other files from being merged or applied.
*/
package merge

/*
Package operation wires analysis, the edit store and apply into the two
commands xform runs.

	+-----------+     +-----------+     +------------+
	| Transform | --> |   store   | --> |   Apply    |
	| (analyze) |     | (.yaml /  |     | (merge +   |
	+-----------+     |  .msgpack)|     |  rewrite)  |
	      |           +-----------+     +------------+
	 schedule + matcher                  merge + apply + status

🎯 Purpose:
- Transform expands the inputs, runs every matcher over them in parallel
  chunks and appends one batch per file to the store
- Apply collects a store, groups and merges its edits per file and rewrites
  each clean file atomically

🔄 Flow of a run without -o:
1. The store is a temporary xform_output file in the root directory
2. Analysis fills it; a hard failure removes it and stops
3. Apply runs on it straight away and removes it when every file was written

⚡ Failure handling:
- A file with overlapping edits is never written, the others still are, and
  ErrConflicts is returned
- A stale, missing or unformattable file gives ErrFailedFiles
- The store is only deleted after a fully successful, non dry-run apply, so
  a failed apply can be retried after fixing the inputs

🤝 Collaborators:
- config: merged settings and input expansion
- status: atomic writes, backups and per-file outcomes
- log: the per-file console lines and the summary
*/
package operation

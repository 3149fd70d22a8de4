/*
Package store persists edit batches between the analysis and apply phases.

	  workers (parallel)          apply (single-threaded)
	+------------------+        +------------------+
	|  Writer.Append   | -----> |     Collect      |
	|  (mutex, O_APPEND)|  file  | (skip bad docs)  |
	+------------------+        +--------+---------+
	                                     |
	                                  Delete
	                            (after full success)

Two encodings are supported, chosen by extension:

  - .yaml: multi-document YAML, one "--- ... ..." document per batch, with
    clang-style keys (MainSourceFile, Replacements, FilePath, Offset, Length,
    ReplacementText, Diagnostics, Fixes).
  - .msgpack: each document is a msgpack map prefixed with its uvarint length.

A document that fails to decode is skipped with a warning and counted; the
remaining documents are still returned. Every replacement must carry all four
of FilePath, Offset, Length and ReplacementText, and a YAML document that is
not closed by its "..." line is treated as cut short and skipped. Offsets are unsigned on the wire and
are range-checked on the way in.
*/
package store

/*
Package status writes edited files safely and tracks the outcome of every
file touched by an apply.

	            +-------------+
	            |   Manager   |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+-----+
	|   Files   |           | Outcomes |
	|  (atomic) |           | (report) |
	+-----------+           +----------+

🔄 Flow:
 1. The apply operation reads each file through ReadFile
 2. Edited content is written with WriteFileAtomic, optionally after a
    BackupFile (".bak" next to the original)
 3. Every file ends in exactly one FileStatus, recorded with TrackFile
 4. Summary counts outcomes for the final report

📊 Outcomes:
  - applied, unchanged, previewed: no error
  - conflicted, stale, missing, failed: the file was left untouched and
    the apply exits non-zero

Writes go through github.com/natefinch/atomic, so an interrupted apply
never leaves a half-written source file. The existing file mode is kept.
*/
package status

/*
Package schedule runs an analysis callback over many files in parallel.

	        files (N)
	           |
	   +-------+-------+        H   = max(1, min(requested, max(4, hw)))
	   |     Plan      |        fpc = max(3, round(N/H))
	   +-------+-------+        chunks = ceil(N/fpc)
	           |
	  +--------+--------+---------+
	  |        |        |         |
	chunk 0  chunk 1   ...    chunk k-1
	 (go)     (go)             (caller)
	  |        |        |         |
	  +--------+---+----+---------+
	               |
	             join
	               |
	   hard failure? -> *HardFailureError
	   otherwise     -> sum of statuses

Every chunk runs to completion; there is no cancellation, retry or timeout.
State moves Idle -> Partitioned -> Dispatched -> Joining and ends in
Succeeded or FailedHard.
*/
package schedule

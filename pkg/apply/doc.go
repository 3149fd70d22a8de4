/*
Package apply turns a clean merge result into new file content.

	original bytes      sorted, non-overlapping edits
	      |                        |
	      +-----------+------------+
	                  |
	          single cursor pass
	                  |
	          optional Formatter
	                  |
	             new bytes

Offsets always refer to the original content. An edit that runs past the
end of the content yields an *ApplyError: the file changed since the edits
were computed, and only that file is affected.
*/
package apply

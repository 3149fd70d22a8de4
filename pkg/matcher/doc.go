/*
Package matcher holds the analysis side of xform: the matcher registry, the
builtin matchers and the Analyzer that feeds the edit store.

	   Registry (explicit, built in main)
	        |
	        | Create(id, args) once per chunk
	        v
	+---------------+   Match(file)   +------------------+
	|   Analyzer    | --------------> | rename/regex/... |
	+-------+-------+                 +------------------+
	        |
	        | Append(ReplacementBatch)
	        v
	   store.Writer

Per-matcher arguments follow a "--matcher-args-ID" marker on the command
line and are parsed by each matcher with its own pflag set:

	xform run -m rename a.cc --matcher-args-rename --old Foo --new Bar
*/
package matcher

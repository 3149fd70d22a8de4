// Package config loads xform settings from a file and merges them with the
// command line.
//
//	   xform.yaml | xform.hcl | xform.json | xform.toml
//	                    |
//	                    v  Parsers (by extension)
//	               +---------+        +-----------+
//	               | Config  | Merge  | CLI flags |
//	               |  file   |<-------+  Config   |
//	               +----+----+        +-----------+
//	                    |
//	                    v  ExpandInputs
//	          absolute, deduplicated input files
//
// 🔄 Merge rules:
//   - matchers, input_files, include, exclude and matcher_args from the file
//     are appended to the command line values
//   - scalars (threads, output, log_file, quiet, base_dir, format, backup)
//     come from the command line only when set there explicitly
//
// Relative paths in a config file are resolved against the file's directory.
//
// Example xform.yaml:
//
//	matchers: [rename]
//	include: ["src/**/*.cc"]
//	exclude: ["third_party/**"]
//	threads: 8
//	matcher_args:
//	  rename: ["--old", "Foo", "--new", "Bar"]
package config

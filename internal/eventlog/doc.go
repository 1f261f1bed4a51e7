// Package eventlog implements the append-only event log shared by every
// process of an xmod run.
//
// # Record Format
//
// One record per line, four fields separated by " ; ":
//
//	<logical ms> ; <pid> ; <KIND> ; <detail>
//
// for example:
//
//	0 ; 4120 ; PROC_CREAT ; xmod -R u+x dir
//	3 ; 4120 ; FILE_MODF ; /tmp/dir/a : 644 : 744
//	5 ; 4121 ; PROC_CREAT ; xmod -R u+x dir/sub
//	9 ; 4121 ; PROC_EXIT ; 0
//
// # Sharing Across Processes
//
// The root process opens the file with O_APPEND and O_TRUNC; workers inherit
// the same open file description and never truncate. Every record is written
// with a single write call and kept within [MaxRecordSize] bytes, so the
// kernel's atomic append keeps records from different processes whole.
// Within a process, a mutex serializes writers.
//
// Ordering within one process is program order. Ordering across processes
// follows the logical timestamps, which are only approximately comparable.
package eventlog

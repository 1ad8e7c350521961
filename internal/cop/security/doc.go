// Package security holds cops that flag security-sensitive calls.
//
// Security/Open reports calls to Kernel#open whose first argument may
// start with "|": Kernel#open treats such a path as a shell command.
//
//	open(something)            # flagged
//	open("| #{cmd}")           # flagged
//	open("#{dir}/file")        # flagged
//	open("foo.txt")            # accepted unless DisallowAll
//	open("prefix_#{foo}")      # accepted unless DisallowAll
//	File.open(something)       # never flagged
//
// The check runs in four steps: the matcher picks calls named open with
// no receiver or the Kernel receiver, the classifier sorts the first
// argument into a Shape, the policy decides whether the Shape is an
// offense under the cop's options, and the emitter reports it on the
// method name.
package security

// Package builtin implements the standard tool suite: filesystem, shell, git
// and search capabilities, all confined to the task's working directory by
// the path sandbox.
package builtin

import "loom/internal/agent/ports"

// All returns the full builtin tool suite in registration order.
func All() []ports.Tool {
	return []ports.Tool{
		// Filesystem
		NewFileRead(),
		NewFileWrite(),
		NewFileEdit(),
		NewListDirectory(),

		// Shell
		NewShellExecute(),

		// Git
		NewGitStatus(),
		NewGitDiff(),
		NewGitCommit(),

		// Search
		NewSearchFiles(),
		NewSearchCode(),
	}
}

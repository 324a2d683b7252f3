package cli

import (
	"github.com/spf13/cobra"

	"github.com/taskfold/taskfold/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "taskfold",
	Short: "Taskfold - task-scoped time and memory profiler",
	Long: `Taskfold profiles workloads by call path and task, writing
folded-stack files consumable by flame graph tooling.

Two measurement kinds:
- time: elapsed microseconds per profiled section
- memory: allocation bytes attributed to the task responsible,
  one signed line per allocation and deallocation

Output lands in {program}-{timestamp}.folded and
{program}-{timestamp}-memory.folded in the configured directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("Taskfold %s\n", version.String())
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

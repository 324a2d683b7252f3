package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/spf13/cobra"

	"github.com/taskfold/taskfold/internal/config"
	"github.com/taskfold/taskfold/internal/logging"
	"github.com/taskfold/taskfold/pkg/profiler"
)

// newRunCmd creates the run command: a built-in workload executed
// under profiling, exercising the full capture-attribute-emit path.
func newRunCmd() *cobra.Command {
	var (
		configPath string
		kindFlag   string
		outputDir  string
		iterations int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sample workload under profiling",
		Long: `Run a built-in allocation-heavy workload with profiling enabled
and write the resulting folded-stack files.

Examples:
  taskfold run --profile time
  taskfold run --profile both --output-dir /tmp/profiles
  taskfold run --config taskfold.yaml --iterations 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if kindFlag != "" {
				cfg.Profile.Kind = kindFlag
			}
			if outputDir != "" {
				cfg.Profile.OutputDir = outputDir
			}

			kind, err := profiler.ParseKind(cfg.Profile.Kind)
			if err != nil {
				return err
			}
			if kind == profiler.KindNone {
				return fmt.Errorf("profiling is off; pass --profile time, memory or both")
			}
			if iterations <= 0 {
				iterations = 25
			}

			logger := logging.NewWithComponent(logging.Config{
				Level:  cfg.Logging.Level,
				Pretty: cfg.Logging.Pretty,
			}, "run")

			p := profiler.New(profiler.Config{
				OutputDir:      cfg.Profile.OutputDir,
				MinTrackedSize: cfg.Profile.MinTrackedSize,
				Logger:         &logger,
			})
			if err := p.Enable(kind); err != nil {
				return fmt.Errorf("failed to enable profiling: %w", err)
			}

			runWorkload(p, iterations)

			p.Flush()
			p.Disable()

			printSummary(cmd, p)
			reportProcessMemory(cmd)

			if f := p.TimeFile(); f != "" && kind.IncludesTime() {
				cmd.Printf("Time profile:   %s\n", f)
			}
			if f := p.MemoryFile(); f != "" && kind.IncludesMemory() {
				cmd.Printf("Memory profile: %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path")
	cmd.Flags().StringVarP(&kindFlag, "profile", "p", "", "Profile kind: time, memory, both")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for .folded files")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 25, "Workload iterations")

	return cmd
}

// runWorkload drives nested sections, tracked allocations and
// recursion so every attribution path shows up in the output.
func runWorkload(p *profiler.Profiler, iterations int) {
	s := p.BeginSection(profiler.SectionOptions{Label: "workload"})
	defer s.End()

	a := p.WrapAllocator(nil)
	held := make([][]byte, 0, iterations)

	for i := 0; i < iterations; i++ {
		held = append(held, buildChunk(p, a, 1<<uint(i%8+6))) //nolint:gosec // G115: Exponent is bounded below 14.
	}
	for _, buf := range held {
		_ = a.Deallocate(buf)
	}

	fib := p.BeginSection(profiler.SectionOptions{Label: "fibonacci"})
	fibonacci(18)
	fib.End()
}

func buildChunk(p *profiler.Profiler, a profiler.Allocator, size int) []byte {
	s := p.BeginSection(profiler.SectionOptions{Kind: profiler.KindMemory})
	defer s.End()

	buf, err := a.Allocate(size)
	if err != nil {
		return nil
	}
	for i := range buf {
		buf[i] = byte(i)
	}
	return buf
}

func fibonacci(n int) int {
	if n < 2 {
		return n
	}
	return fibonacci(n-1) + fibonacci(n-2)
}

// printSummary writes per-function timing stats to the command output.
func printSummary(cmd *cobra.Command, p *profiler.Profiler) {
	snap := p.Stats().Snapshot()
	if len(snap) == 0 {
		return
	}

	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	cmd.Printf("%-40s %8s %12s %12s %12s\n", "FUNCTION", "CALLS", "TOTAL", "AVG", "MAX")
	for _, name := range names {
		fs := snap[name]
		cmd.Printf("%-40s %8d %12s %12s %12s\n",
			name, fs.Calls, fs.Total, fs.Average(), fs.Max)
	}
}

// reportProcessMemory prints the process RSS after the workload.
func reportProcessMemory(cmd *cobra.Command) {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // G115: PIDs fit in int32.
	if err != nil {
		return
	}
	mem, err := proc.MemoryInfo()
	if err != nil || mem == nil {
		return
	}
	cmd.Printf("Process RSS: %.1f MB\n", float64(mem.RSS)/(1024*1024))
}

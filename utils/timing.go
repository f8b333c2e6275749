package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Verbose controls whether timing statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where timing statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// TimingStats holds timing information for a compression run
type TimingStats struct {
	TotalTime    time.Duration
	LoadTime     time.Duration
	CompressTime time.Duration
	SaveTime     time.Duration
}

// PrintTimingStats prints timing statistics.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintTimingStats(stats *TimingStats) {
	if !Verbose {
		return
	}
	fmt.Fprintln(Output, "\n=== TIMING STATISTICS ===")
	fmt.Fprintf(Output, "Total time: %v\n", stats.TotalTime)
	fmt.Fprintf(Output, "  Model loading: %v (%.1f%%)\n", stats.LoadTime, float64(stats.LoadTime)/float64(stats.TotalTime)*100)
	fmt.Fprintf(Output, "  Compression: %v (%.1f%%)\n", stats.CompressTime, float64(stats.CompressTime)/float64(stats.TotalTime)*100)
	fmt.Fprintf(Output, "  Saving: %v (%.1f%%)\n", stats.SaveTime, float64(stats.SaveTime)/float64(stats.TotalTime)*100)
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000.0
}

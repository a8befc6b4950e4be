package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"doccheck/internal/trace"
)

type traceFlags struct {
	output    string
	level     trace.Level
	mode      trace.StorageMode
	format    trace.Format
	ringSize  int
	heartbeat time.Duration
}

func readTraceFlags(pf *pflag.FlagSet) (traceFlags, error) {
	var tf traceFlags
	output, err := pf.GetString("trace")
	if err != nil {
		return tf, fmt.Errorf("failed to get trace flag: %w", err)
	}
	tf.output = output
	if tf.ringSize, err = pf.GetInt("trace-ring-size"); err != nil {
		return tf, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	if tf.heartbeat, err = pf.GetDuration("trace-heartbeat"); err != nil {
		return tf, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	values := map[string]string{}
	for _, name := range []string{"trace-level", "trace-mode", "trace-format"} {
		v, err := pf.GetString(name)
		if err != nil {
			return tf, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		values[name] = v
	}
	if tf.level, err = trace.ParseLevel(values["trace-level"]); err != nil {
		return tf, fmt.Errorf("invalid trace level: %w", err)
	}
	if tf.mode, err = trace.ParseMode(values["trace-mode"]); err != nil {
		return tf, fmt.Errorf("invalid trace mode: %w", err)
	}
	if tf.format, err = trace.ParseFormat(values["trace-format"]); err != nil {
		return tf, fmt.Errorf("invalid trace format: %w", err)
	}
	if tf.format == trace.FormatAuto {
		tf.format = trace.FormatForPath(output)
	}
	// an output file alone asks for stage-level events
	if tf.level == trace.LevelOff && output != "" {
		tf.level = trace.LevelPhase
	}
	return tf, nil
}

// setupTracing installs the tracer selected by the --trace* flags into the
// command context. The returned cleanup flushes and closes it.
func setupTracing(cmd *cobra.Command) (func(), error) {
	tf, err := readTraceFlags(cmd.Root().PersistentFlags())
	if err != nil {
		return nil, err
	}
	if tf.level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	tracer, err := trace.New(trace.Config{
		Level:      tf.level,
		Mode:       tf.mode,
		Format:     tf.format,
		OutputPath: tf.output,
		RingSize:   tf.ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	heartbeat := trace.StartHeartbeat(tracer, tf.heartbeat)
	stderr := cmd.ErrOrStderr()
	return func() {
		heartbeat.Stop()
		if ring, ok := tracer.(*trace.RingTracer); ok {
			dumpRing(cmd, ring, tf.output, tf.format)
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(stderr, "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(stderr, "trace: close error: %v\n", err)
		}
	}, nil
}

// dumpRing writes the ring buffer to path ("" or "-" for stderr) once the
// command is done.
func dumpRing(cmd *cobra.Command, ring *trace.RingTracer, path string, format trace.Format) {
	w := cmd.ErrOrStderr()
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: %v\n", err)
			return
		}
		defer f.Close()
		w = f
	}
	if err := ring.Dump(w, format); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
	}
}

// Package raspberrykit provides building blocks for driving Raspberry Pi
// peripherals through the external command line tools shipped with the OS.
package raspberrykit

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
)

// ChunkFunc receives one chunk of process output. The slice is only valid
// for the duration of the call; callers that keep the data must copy it.
type ChunkFunc func(chunk []byte)

// RunStreamOpts has options for RunStream.
type RunStreamOpts struct {
	Verbose bool

	// BufferSize is the read buffer size for the stdout pipe. If 0, a
	// default of 64KB is used.
	BufferSize int
}

// runStreamOptsDefault has default option values for RunStream.
var runStreamOptsDefault = RunStreamOpts{
	BufferSize: 64 * 1024,
}

// RunStream starts the named command and delivers its standard output to
// onChunk as it arrives, in emission order. It blocks until the process
// exits and returns its exit code.
//
// Cancelling ctx kills the process; the kill is reported through the exit
// code (-1) with a nil error. A non-nil error is only returned when the
// process could not be started or its output could not be read, never for a
// non-zero exit.
func RunStream(ctx context.Context, name string, args []string, onChunk ChunkFunc, opts *RunStreamOpts) (int, error) {
	var xopts RunStreamOpts
	if opts != nil {
		xopts = *opts
	}
	if xopts.BufferSize == 0 {
		xopts.BufferSize = runStreamOptsDefault.BufferSize
	}

	cmd := exec.CommandContext(ctx, name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("stdout pipe: %v", err)
	}

	if xopts.Verbose {
		log.Printf("starting %s %s", name, strings.Join(args, " "))
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting %s: %v", name, err)
	}

	buf := make([]byte, xopts.BufferSize)
	var readErr error
	for {
		n, err := stdout.Read(buf)
		if n > 0 && onChunk != nil {
			onChunk(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			// The pipe closes when the process is killed on
			// cancellation; that is expected termination, not a
			// read failure.
			if ctx.Err() == nil {
				readErr = fmt.Errorf("reading %s output: %v", name, err)
			}
			break
		}
	}

	err = cmd.Wait()
	if readErr != nil {
		return cmd.ProcessState.ExitCode(), readErr
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return cmd.ProcessState.ExitCode(), nil
		}
		return 0, fmt.Errorf("waiting for %s: %v", name, err)
	}
	return 0, nil
}

// Package stacktrace trims goroutine stacks down to this module's frames.
package stacktrace

import (
	"runtime"
	"strconv"
	"strings"
)

const maxDepth = 64

// modulePrefix is the import path up to and including the module root, e.g.
// "github.com/shandysiswandi/billease/".
var modulePrefix = func() string {
	pc, _, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	name := runtime.FuncForPC(pc).Name()
	if i := strings.Index(name, "/internal/"); i >= 0 {
		return name[:i+1]
	}
	return ""
}()

// Internal returns the module frames of the calling goroutine formatted as
// "internal/<pkg>/<file>.go:<line>", innermost first. skip is the number of
// frames to drop above the caller of Internal.
func Internal(skip int) []string {
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	paths := make([]string, 0, n)
	for {
		f, more := frames.Next()
		if path, ok := internalPath(f); ok {
			paths = append(paths, path)
		}
		if !more {
			break
		}
	}
	return paths
}

func internalPath(f runtime.Frame) (string, bool) {
	if modulePrefix == "" || !strings.HasPrefix(f.Function, modulePrefix) {
		return "", false
	}
	i := strings.LastIndex(f.File, "/internal/")
	if i < 0 {
		return "", false
	}
	return f.File[i+1:] + ":" + strconv.Itoa(f.Line), true
}

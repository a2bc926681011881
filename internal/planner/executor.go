package planner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Execute applies every operation in the summary. Failures are collected
// per file; the executor keeps going so a single locked or missing file
// does not abandon the rest of the plan. It stops early only when ctx is
// cancelled.
func Execute(ctx context.Context, summary *Summary) *Result {
	res := &Result{}
	for _, op := range summary.Operations {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, FileError{Op: op, Cause: err.Error()})
			return res
		}
		if err := apply(op); err != nil {
			res.Errors = append(res.Errors, FileError{Op: op, Cause: err.Error()})
			continue
		}
		res.Completed++
	}
	return res
}

func apply(op Operation) error {
	switch op.Kind {
	case OpDelete:
		return os.Remove(op.Source)
	case OpMove:
		if err := prepareDest(op.Dest); err != nil {
			return err
		}
		if err := os.Rename(op.Source, op.Dest); err == nil {
			return nil
		}
		// Rename fails across filesystems; fall back to copy and remove.
		if err := copyFile(op.Source, op.Dest); err != nil {
			return err
		}
		return os.Remove(op.Source)
	case OpCopy:
		if err := prepareDest(op.Dest); err != nil {
			return err
		}
		return copyFile(op.Source, op.Dest)
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

// prepareDest creates the destination directory and refuses to clobber an
// existing file. Plans assign unique names, so an existing destination
// means something outside this run owns the file.
func prepareDest(dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if _, err := os.Lstat(dest); err == nil {
		return fmt.Errorf("destination already exists")
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}

// Package audit implements the append-only /var/log/audit.log sink spec.md
// §4.7 names. Grounded on the teacher's Emitter/Sink split (one formatting
// concern, one write concern), here collapsed to a single LineSink since
// there is only one real destination (the VFS) in scope.
package audit

import (
	"fmt"
	"time"

	"github.com/aedmark/shellos/pkg/vfs"
)

const logPath = "/var/log/audit.log"

// LineSink appends one formatted line per call through pkg/vfs, creating
// /var/log (owned by root) and the log file itself on first use.
type LineSink struct {
	fs *vfs.FS
}

func NewLineSink(fs *vfs.FS) *LineSink {
	return &LineSink{fs: fs}
}

func rootActor() vfs.Actor { return vfs.Actor{Name: "root", Groups: []string{"root"}} }

func (s *LineSink) ensureLog() error {
	if _, err := s.fs.GetNode("/var", true); err != nil {
		if cErr := s.fs.CreateDirectory("/var", rootActor()); cErr != nil && cErr != vfs.ErrFileExists {
			return cErr
		}
	}
	if _, err := s.fs.GetNode("/var/log", true); err != nil {
		if cErr := s.fs.CreateDirectory("/var/log", rootActor()); cErr != nil && cErr != vfs.ErrFileExists {
			return cErr
		}
	}
	if _, err := s.fs.GetNode(logPath, true); err != nil {
		if wErr := s.fs.WriteFile(logPath, []byte{}, rootActor()); wErr != nil {
			return wErr
		}
	}
	return nil
}

// Log appends a single "ISO-TS | USER: <actor> | ACTION: <kind> | DETAILS:
// <free-text>" line, matching spec.md §4.7 and the scenario transcript in
// §8 verbatim.
func (s *LineSink) Log(actor, action, details string) error {
	if err := s.ensureLog(); err != nil {
		return err
	}
	node, err := s.fs.GetNode(logPath, true)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("%s | USER: %s | ACTION: %s | DETAILS: %s\n",
		time.Now().UTC().Format(time.RFC3339), actor, action, details)
	updated := append(append([]byte{}, node.Content...), []byte(line)...)
	return s.fs.WriteFile(logPath, updated, rootActor())
}

package vfs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/robfig/cron"
)

const agendaPath = "/etc/agenda.json"

// AgendaJob mirrors the /etc/agenda.json entry shape from spec.md §3/§6.
type AgendaJob struct {
	ID         string `json:"id"`
	CronString string `json:"cronString"`
	Command    string `json:"command"`
}

// isWarded reports whether checkPath is named in a scheduled chmod job's
// command string, per spec.md §4.1's "ward" policy. It reads /etc/agenda.json
// directly off the tree, bypassing permission checks, mirroring the
// original's internal use of get_node for this purely observational check.
// Every call site invokes this while already holding fs.mu (read or write),
// so it uses the lock-free lookupRawLocked rather than re-locking.
func (fs *FS) isWarded(checkPath string) bool {
	node := fs.lookupRawLocked(agendaPath)
	if node == nil || node.Kind != KindFile {
		return false
	}
	jobs, _ := parseAgenda(node.Content)
	for _, job := range jobs {
		if strings.HasPrefix(job.Command, "chmod") && strings.Contains(job.Command, checkPath) {
			return true
		}
	}
	return false
}

// parseAgenda decodes the agenda array and reports any entries whose
// cronString fails to parse as a standard 5-field cron expression; a
// malformed cronString never blocks the ward check (it only inspects the
// command string), but is surfaced for fsck-style diagnostics.
func parseAgenda(content []byte) ([]AgendaJob, []string) {
	var jobs []AgendaJob
	if len(content) == 0 {
		return jobs, nil
	}
	if err := json.Unmarshal(content, &jobs); err != nil {
		return nil, []string{"malformed /etc/agenda.json: " + err.Error()}
	}
	var warnings []string
	for _, job := range jobs {
		if job.CronString == "" {
			continue
		}
		if _, err := cron.ParseStandard(job.CronString); err != nil {
			warnings = append(warnings, fmt.Sprintf("agenda job %s: invalid cronString %q: %v", job.ID, job.CronString, err))
		}
	}
	return jobs, warnings
}

// ValidateAgenda reports diagnostics for /etc/agenda.json without mutating
// anything.
func (fs *FS) ValidateAgenda() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.validateAgendaLocked()
}

// validateAgendaLocked is ValidateAgenda's lock-free core, called directly
// by Fsck (see fsck.go) which already holds fs.mu for writing.
func (fs *FS) validateAgendaLocked() []string {
	node := fs.lookupRawLocked(agendaPath)
	if node == nil || node.Kind != KindFile {
		return nil
	}
	_, warnings := parseAgenda(node.Content)
	return warnings
}

package bridge

import (
	"encoding/json"
	"hash/crc32"
)

const backupDataType = "SamwiseOS_System_State_Backup_v5.0"

// Backup is the full system-state snapshot spec.md §6 names. Checksum is
// computed over the JSON encoding of every other field and verified before
// a restore is applied.
type Backup struct {
	DataType        string          `json:"dataType"`
	OSVersion       string          `json:"osVersion"`
	Timestamp       string          `json:"timestamp"`
	FSDataSnapshot  json.RawMessage `json:"fsDataSnapshot"`
	UserCredentials json.RawMessage `json:"userCredentials"`
	UserGroups      json.RawMessage `json:"userGroups"`
	SessionState    json.RawMessage `json:"sessionState"`
	Checksum        uint32          `json:"checksum"`
}

// checksumPayload is Backup minus Checksum, whose JSON encoding is hashed.
type checksumPayload struct {
	DataType        string          `json:"dataType"`
	OSVersion       string          `json:"osVersion"`
	Timestamp       string          `json:"timestamp"`
	FSDataSnapshot  json.RawMessage `json:"fsDataSnapshot"`
	UserCredentials json.RawMessage `json:"userCredentials"`
	UserGroups      json.RawMessage `json:"userGroups"`
	SessionState    json.RawMessage `json:"sessionState"`
}

func computeChecksum(b Backup) (uint32, error) {
	payload := checksumPayload{
		DataType:        b.DataType,
		OSVersion:       b.OSVersion,
		Timestamp:       b.Timestamp,
		FSDataSnapshot:  b.FSDataSnapshot,
		UserCredentials: b.UserCredentials,
		UserGroups:      b.UserGroups,
		SessionState:    b.SessionState,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	return crc32.ChecksumIEEE(raw), nil
}

// NewBackup builds a Backup with its checksum filled in.
func NewBackup(osVersion, timestamp string, fsSnapshot, credentials, groups, sessionState json.RawMessage) (Backup, error) {
	b := Backup{
		DataType:        backupDataType,
		OSVersion:       osVersion,
		Timestamp:       timestamp,
		FSDataSnapshot:  fsSnapshot,
		UserCredentials: credentials,
		UserGroups:      groups,
		SessionState:    sessionState,
	}
	sum, err := computeChecksum(b)
	if err != nil {
		return Backup{}, err
	}
	b.Checksum = sum
	return b, nil
}

// Verify recomputes the checksum and reports whether it matches the stored
// value, matching spec.md §6's "Restore recomputes and verifies checksum
// before applying."
func (b Backup) Verify() bool {
	sum, err := computeChecksum(b)
	if err != nil {
		return false
	}
	return sum == b.Checksum
}

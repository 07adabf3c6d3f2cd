package audit

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ComputeDigest hashes the canonical form of an entry with BLAKE2b-256.
// The digest field itself is excluded.
func ComputeDigest(e Entry) string {
	var b strings.Builder
	for _, field := range []string{
		e.ID.String(),
		e.ActorID.String(),
		e.ActorName,
		e.ActorEmail,
		e.Action,
		e.Resource,
		e.ResourceID,
		string(e.OldValue),
		string(e.NewValue),
		strconv.FormatBool(e.Success),
		e.ErrorMessage,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.IPAddress,
		e.UserAgent,
		e.Client,
		e.RequestID,
	} {
		b.WriteString(strconv.Itoa(len(field)))
		b.WriteByte(':')
		b.WriteString(field)
	}
	sum := blake2b.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Seal sets the entry digest.
func (e *Entry) Seal() {
	e.Digest = ComputeDigest(*e)
}

// Verify reports whether the stored digest still matches the entry contents.
func (e Entry) Verify() bool {
	return e.Digest != "" && e.Digest == ComputeDigest(e)
}

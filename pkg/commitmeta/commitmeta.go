// package commitmeta provides the data structure that associates metadata
// with a single commit against the content repository. Producers build one
// CommitMeta per write transaction and hand it, read-only, to any number of
// downstream consumers.
package commitmeta

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// UnknownUser is the placeholder user id substituted when a commit is made
// without a known user.
const UnknownUser = "oak:unknown"

// RootPath is the default scope path of a commit that does not declare a
// narrower subtree.
const RootPath = "/"

// ErrInvalidArgument is returned by the constructors when a required field is
// missing. Check for it with errors.Is. It is the only error this package
// produces; no operation after construction can fail.
var ErrInvalidArgument = errors.New("commitmeta: invalid argument")

// Empty is the shared sentinel instance used when no metadata is known (or
// needed) about a commit. Consumers may compare against it by identity
// (m == commitmeta.Empty) or structurally via Equal; both are valid since
// equality is structural. Its timestamp is captured once when the package is
// initialized and never changes.
var Empty = &CommitMeta{
	sessionID: UnknownUser,
	userID:    UnknownUser,
	path:      RootPath,
	timestamp: time.Now().UnixMilli(),
}

// CommitMeta describes the provenance and scope of a single commit: which
// session issued it, on behalf of which user, with what message, against
// which subtree, and when. Instances are immutable after construction and
// safe to share across goroutines without synchronization.
type CommitMeta struct {
	sessionID string
	userID    string
	message   string
	timestamp int64
	path      string
}

// New builds commit metadata scoped to the root path. The session id is
// required; an empty userID is normalized to UnknownUser and an empty message
// means no message was supplied.
//
// The current wall-clock time (in milliseconds) is captured into the returned
// instance as a side effect. Because equality includes the timestamp, two
// instances built from identical inputs at different instants compare
// unequal. Use NewAtTime when tests need reproducible instances.
func New(sessionID, userID, message string) (*CommitMeta, error) {
	return NewAtTime(sessionID, userID, message, RootPath, time.Now())
}

// NewScoped builds commit metadata declaring an explicit scope path. The path
// is advisory: it hints at the subtree the commit touches but is not an
// enforced boundary. Unlike New, the path must be supplied and non-empty.
// Timestamp capture behaves exactly as in New.
func NewScoped(sessionID, userID, message, path string) (*CommitMeta, error) {
	return NewAtTime(sessionID, userID, message, path, time.Now())
}

// NewAtTime builds commit metadata with an injected timestamp instead of the
// wall clock. It applies the same validation and normalization as NewScoped.
// Intended for deterministic tests; production code should prefer New or
// NewScoped.
func NewAtTime(sessionID, userID, message, path string, at time.Time) (*CommitMeta, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id must not be empty", ErrInvalidArgument)
	}

	if path == "" {
		return nil, fmt.Errorf("%w: path must not be empty", ErrInvalidArgument)
	}

	if userID == "" {
		userID = UnknownUser
	}

	return &CommitMeta{
		sessionID: sessionID,
		userID:    userID,
		message:   message,
		timestamp: at.UnixMilli(),
		path:      path,
	}, nil
}

// SessionID returns the id of the committing session.
func (m *CommitMeta) SessionID() string {
	return m.sessionID
}

// UserID returns the id of the committing user, or UnknownUser when none was
// supplied.
func (m *CommitMeta) UserID() string {
	return m.userID
}

// Message returns the message attached to the commit. The second return value
// is false when no message was supplied.
func (m *CommitMeta) Message() (string, bool) {
	return m.message, m.message != ""
}

// Timestamp returns the creation time of this metadata in milliseconds since
// the Unix epoch.
func (m *CommitMeta) Timestamp() int64 {
	return m.timestamp
}

// Time returns the creation time as a time.Time. It is a view of the same
// instant reported by Timestamp.
func (m *CommitMeta) Time() time.Time {
	return time.UnixMilli(m.timestamp)
}

// Path returns the base path of the commit. All changes within the commit are
// expected to fall under this path, but the value is purely informational and
// its interpretation is up to the consumer. Defaults to RootPath.
func (m *CommitMeta) Path() string {
	return m.path
}

// Equal reports whether m and other carry the same session id, user id,
// message, timestamp and path. Because the timestamp participates, metadata
// for two distinct commit occurrences never compares equal even when the
// business fields match. A nil receiver equals only a nil argument.
func (m *CommitMeta) Equal(other *CommitMeta) bool {
	if m == other {
		return true
	}

	if m == nil || other == nil {
		return false
	}

	return m.sessionID == other.sessionID &&
		m.userID == other.userID &&
		m.message == other.message &&
		m.timestamp == other.timestamp &&
		m.path == other.path
}

// Hash returns a 64-bit hash over the same five fields Equal compares. Equal
// instances always hash identically.
func (m *CommitMeta) Hash() uint64 {
	h := fnv.New64a()

	for _, field := range []string{m.sessionID, m.userID, m.message, m.path} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}

	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], uint64(m.timestamp))
	h.Write(ts[:])

	return h.Sum64()
}

// String renders the metadata as labeled key-value pairs for diagnostics and
// logs. An absent message is omitted. The format is not stable across
// versions and must not be parsed.
func (m *CommitMeta) String() string {
	var b strings.Builder

	b.WriteString("commit meta{sessionID: ")
	b.WriteString(m.sessionID)
	b.WriteString(", userID: ")
	b.WriteString(m.userID)

	if m.message != "" {
		b.WriteString(", message: ")
		b.WriteString(m.message)
	}

	fmt.Fprintf(&b, ", timestamp: %d, path: %s}", m.timestamp, m.path)

	return b.String()
}

// MarshalLogObject encodes the metadata as a structured zap object, so
// consumers can attach it to log entries with zap.Object. An absent message
// is omitted, matching String.
func (m *CommitMeta) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("sessionID", m.sessionID)
	enc.AddString("userID", m.userID)

	if m.message != "" {
		enc.AddString("message", m.message)
	}

	enc.AddInt64("timestamp", m.timestamp)
	enc.AddString("path", m.path)

	return nil
}

package passwd

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/KilimcininKorOglu/fakeldap/internal/logging"
	"github.com/gofrs/flock"
)

// Header is written at the top of a freshly initialized record file.
const Header = "# cn:pass:uid:gid:description:homedirectory:shell\n"

// DefaultLockRetryDelay is how often a blocked lock acquisition is retried.
const DefaultLockRetryDelay = 10 * time.Millisecond

// Store is the flat-file record store.
//
// Appends are serialized in-process by a mutex and across processes by an
// exclusive lock on a sibling ".lock" file. Loads hold a shared lock on the
// same file, so a load sees the file either before or after an append and
// never a partially written line.
type Store struct {
	path       string
	lockPath   string
	retryDelay time.Duration
	logger     logging.Logger

	// mu serializes appends from this process.
	mu sync.Mutex
}

// NewStore creates a Store for the record file at path.
func NewStore(path string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		path:       path,
		lockPath:   path + ".lock",
		retryDelay: DefaultLockRetryDelay,
		logger:     logger,
	}
}

// Path returns the record file path.
func (s *Store) Path() string {
	return s.path
}

// Init creates the record file with a format header if it does not exist yet.
func (s *Store) Init() error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return StorageError.Wrap(err, "failed to create record file %s", s.path)
	}
	defer f.Close()

	if _, err := f.WriteString(Header); err != nil {
		return StorageError.Wrap(err, "failed to write record file header")
	}

	s.logger.Info("record file created", "path", s.path)
	return nil
}

// Load reads every record in the file. Blank lines and lines starting with
// '#' are skipped, as are lines without a cn.
func (s *Store) Load(ctx context.Context) (*Records, error) {
	lock := flock.New(s.lockPath)
	if _, err := lock.TryRLockContext(ctx, s.retryDelay); err != nil {
		return nil, StorageError.Wrap(err, "failed to lock record file %s", s.path)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, StorageError.Wrap(err, "failed to read record file %s", s.path)
	}

	records := newRecords()
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		r, err := ParseRecord(line)
		if err != nil {
			s.logger.Warn("skipping malformed record",
				"path", s.path,
				"line", i+1,
				"error", err.Error())
			continue
		}
		records.put(r)
	}

	return records, nil
}

// Append writes r as a new line at the end of the file.
func (s *Store) Append(ctx context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lock := flock.New(s.lockPath)
	if _, err := lock.TryLockContext(ctx, s.retryDelay); err != nil {
		return StorageError.Wrap(err, "failed to lock record file %s", s.path)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return StorageError.Wrap(err, "failed to open record file %s", s.path)
	}
	defer f.Close()

	line := r.String() + "\n"

	// A file edited by hand may lack its final newline.
	missing, err := missingTrailingNewline(f)
	if err != nil {
		return StorageError.Wrap(err, "failed to inspect record file %s", s.path)
	}
	if missing {
		line = "\n" + line
	}

	if _, err := f.WriteString(line); err != nil {
		return StorageError.Wrap(err, "failed to append to record file %s", s.path)
	}
	if err := f.Sync(); err != nil {
		return StorageError.Wrap(err, "failed to sync record file %s", s.path)
	}

	s.logger.Debug("record appended", "path", s.path, "cn", r.CN)
	return nil
}

func missingTrailingNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

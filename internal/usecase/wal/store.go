package wal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"

	walv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/wal/v1"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/config"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/errors"
	"github.com/akhil9281/AlgoTest-OrderApi/pkg/logger"
)

const (
	// formatVersion is the first byte of every frame payload.
	formatVersion byte = 1

	// frameHeaderSize is [len:u32 LE][crc32c:u32 LE].
	frameHeaderSize = 8

	lockFileName = "LOCK"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Store is the file-backed write-ahead log. Frames are
// [len:u32 LE][crc32c:u32 LE][payload] where the checksum covers the length
// prefix and the payload. One frame holds one append batch: every record
// staged between two Flush calls becomes durable atomically, so a request's
// record set is never partially durable.
type Store struct {
	dir     string
	segSize int64
	logger  logger.Interface

	current  *segment
	segIndex int
	lockFile string

	staged  []*walv1.Record
	nextLSN uint64

	replayed bool
}

type segment struct {
	path   string
	file   *os.File
	offset int64
}

// batch is the frame payload after the version byte.
type batch struct {
	Records []*walv1.Record `json:"records"`
}

// Open acquires exclusive ownership of the log directory and opens the
// newest segment for appending. Replay must be called before the first
// Append.
func Open(cfg config.WALConfig, log logger.Interface) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.TracerFromError(err)
	}

	lockPath := filepath.Join(cfg.Dir, lockFileName)
	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.NewErrorDetails(
				fmt.Sprintf("wal directory %s is already owned by another engine", cfg.Dir),
				string(errors.WALLockError), "dir")
		}
		return nil, errors.TracerFromError(err)
	}
	fmt.Fprintf(lock, "%d\n", os.Getpid())
	_ = lock.Close()

	segments, err := listSegments(cfg.Dir)
	if err != nil {
		_ = os.Remove(lockPath)
		return nil, err
	}

	segIndex := 0
	if len(segments) > 0 {
		segIndex = segmentIndex(segments[len(segments)-1])
	}

	current, err := openSegment(cfg.Dir, segIndex)
	if err != nil {
		_ = os.Remove(lockPath)
		return nil, err
	}

	return &Store{
		dir:      cfg.Dir,
		segSize:  cfg.SegmentSize,
		logger:   log,
		current:  current,
		segIndex: segIndex,
		lockFile: lockPath,
		nextLSN:  1,
	}, nil
}

// Append stages a record in the current batch and assigns its LSN.
func (s *Store) Append(rec *walv1.Record) error {
	if !s.replayed {
		return errors.NewTracer("wal: Append before Replay")
	}

	rec.LSN = s.nextLSN
	s.nextLSN++
	s.staged = append(s.staged, rec)
	return nil
}

// Flush frames the staged batch, writes it with a single write call and
// syncs the segment to stable storage. A flush failure is fatal to the
// engine: the staged records keep their LSNs and the store must not be
// used again.
func (s *Store) Flush() error {
	if len(s.staged) == 0 {
		return nil
	}

	encoded, err := json.Marshal(batch{Records: s.staged})
	if err != nil {
		return errors.NewTracer("wal: encode batch").Wrap(err)
	}

	payload := make([]byte, 1+len(encoded))
	payload[0] = formatVersion
	copy(payload[1:], encoded)

	frame := make([]byte, frameHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(len(payload)))
	copy(frame[frameHeaderSize:], payload)

	crc := crc32.Checksum(frame[0:4], castagnoli)
	crc = crc32.Update(crc, castagnoli, payload)
	binary.LittleEndian.PutUint32(frame[4:8], crc)

	n, err := s.current.file.Write(frame)
	if err != nil {
		return errors.NewErrorDetails(err.Error(), string(errors.WALFlushError), "write")
	}
	s.current.offset += int64(n)

	if err := s.current.file.Sync(); err != nil {
		return errors.NewErrorDetails(err.Error(), string(errors.WALFlushError), "fsync")
	}

	s.staged = s.staged[:0]

	if s.current.offset >= s.segSize {
		return s.rotate()
	}
	return nil
}

// Replay yields every durable record in LSN order. The first bad frame in
// the newest segment, torn or failing its checksum, truncates that segment
// at the frame, dropping it and every frame after it; a checksum mismatch
// inside the newest segment is therefore not reported as corruption. A bad
// frame in any older segment is unrecoverable corruption.
func (s *Store) Replay(fn walv1.ReplayHandler) (uint64, error) {
	segments, err := listSegments(s.dir)
	if err != nil {
		return 0, err
	}

	var lastLSN uint64
	for i, path := range segments {
		isLast := i == len(segments)-1

		lastLSN, err = s.replaySegment(path, isLast, lastLSN, fn)
		if err != nil {
			return lastLSN, err
		}
	}

	if lastLSN+1 > s.nextLSN {
		s.nextLSN = lastLSN + 1
	}
	s.replayed = true
	return lastLSN, nil
}

// Reset moves the next-LSN mark past lsn. Recovery calls it when a
// checkpoint sits above the highest surviving record, which happens when
// every segment at or below the checkpoint was pruned.
func (s *Store) Reset(lsn uint64) {
	if lsn+1 > s.nextLSN {
		s.nextLSN = lsn + 1
	}
}

func (s *Store) replaySegment(path string, isLast bool, lastLSN uint64, fn walv1.ReplayHandler) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return lastLSN, errors.TracerFromError(err)
	}
	defer f.Close()

	var offset int64
	for {
		records, n, err := readFrame(f)
		if err == io.EOF {
			return lastLSN, nil
		}
		if err != nil {
			if !isLast {
				return lastLSN, errors.NewErrorDetails(
					fmt.Sprintf("wal segment %s is corrupt at offset %d: %v", path, offset, err),
					string(errors.WALCorruptError), "replay")
			}

			// Torn tail: drop everything from the bad frame onward.
			s.logger.Warn("truncating torn wal tail",
				logger.Field{Key: "segment", Value: path},
				logger.Field{Key: "offset", Value: offset},
				logger.Field{Key: "cause", Value: err.Error()},
			)
			return lastLSN, s.truncateTail(path, offset)
		}

		for _, rec := range records {
			// The first surviving record may sit past LSN 1 when older
			// segments were pruned after a checkpoint.
			if lastLSN != 0 && rec.LSN != lastLSN+1 {
				return lastLSN, errors.NewErrorDetails(
					fmt.Sprintf("wal: non-monotonic lsn %d after %d", rec.LSN, lastLSN),
					string(errors.WALCorruptError), "replay")
			}
			if err := fn(rec); err != nil {
				return lastLSN, err
			}
			lastLSN = rec.LSN
		}
		offset += n
	}
}

// truncateTail drops the torn bytes and reopens the segment for appending
// if it is the current one.
func (s *Store) truncateTail(path string, offset int64) error {
	if err := os.Truncate(path, offset); err != nil {
		return errors.TracerFromError(err)
	}

	if s.current != nil && s.current.path == path {
		s.current.offset = offset
	}
	return nil
}

// readFrame reads one frame and decodes its records. It returns io.EOF at a
// clean end of segment and a descriptive error for anything torn.
func readFrame(r io.Reader) ([]*walv1.Record, int64, error) {
	header := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return nil, 0, io.EOF
		}
		return nil, 0, fmt.Errorf("truncated frame header: %w", err)
	}

	length := binary.LittleEndian.Uint32(header[0:4])
	sum := binary.LittleEndian.Uint32(header[4:8])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, 0, fmt.Errorf("truncated frame payload: %w", err)
	}

	crc := crc32.Checksum(header[0:4], castagnoli)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != sum {
		return nil, 0, fmt.Errorf("crc mismatch: want %08x got %08x", sum, crc)
	}

	if len(payload) == 0 || payload[0] != formatVersion {
		return nil, 0, fmt.Errorf("unsupported frame version")
	}

	var b batch
	if err := json.Unmarshal(payload[1:], &b); err != nil {
		return nil, 0, fmt.Errorf("decode batch: %w", err)
	}

	return b.Records, int64(frameHeaderSize + int(length)), nil
}

// LastLSN returns the highest assigned LSN.
func (s *Store) LastLSN() uint64 {
	return s.nextLSN - 1
}

// TruncateBefore removes whole segments whose records all have LSN <= lsn.
// The current segment is never removed. Used after a checkpoint.
func (s *Store) TruncateBefore(lsn uint64) error {
	segments, err := listSegments(s.dir)
	if err != nil {
		return err
	}

	for _, path := range segments {
		if s.current != nil && path == s.current.path {
			continue
		}

		maxLSN, err := maxLSNInSegment(path)
		if err != nil {
			continue
		}
		if maxLSN > 0 && maxLSN <= lsn {
			if err := os.Remove(path); err != nil {
				return errors.TracerFromError(err)
			}
		}
	}
	return nil
}

// Close syncs the current segment and releases the lock file.
func (s *Store) Close() error {
	var firstErr error
	if s.current != nil {
		if err := s.current.file.Sync(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := s.current.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := os.Remove(s.lockFile); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *Store) rotate() error {
	_ = s.current.file.Close()
	s.segIndex++

	seg, err := openSegment(s.dir, s.segIndex)
	if err != nil {
		return err
	}

	s.current = seg
	return nil
}

func openSegment(dir string, index int) (*segment, error) {
	path := filepath.Join(dir, fmt.Sprintf("segment-%06d.wal", index))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.TracerFromError(err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.TracerFromError(err)
	}

	return &segment{path: path, file: f, offset: info.Size()}, nil
}

func listSegments(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "segment-*.wal"))
	if err != nil {
		return nil, errors.TracerFromError(err)
	}
	sort.Strings(files)
	return files, nil
}

func segmentIndex(path string) int {
	var index int
	fmt.Sscanf(filepath.Base(path), "segment-%06d.wal", &index)
	return index
}

// maxLSNInSegment scans a segment and returns the highest LSN found. It is
// used only for checkpoint-based truncation.
func maxLSNInSegment(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var max uint64
	for {
		records, _, err := readFrame(f)
		if err != nil {
			return max, nil
		}
		for _, rec := range records {
			if rec.LSN > max {
				max = rec.LSN
			}
		}
	}
}

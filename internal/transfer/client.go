package transfer

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jaywantadh/treecast/internal/filetree"
	"github.com/jaywantadh/treecast/internal/manifest"
	"github.com/jaywantadh/treecast/internal/storage"
)

// Receiver pulls one session from a sender and writes the files into a sink.
type Receiver struct {
	id    string
	sink  storage.Sink
	opts  Options
	log   logrus.FieldLogger
	state State
	sleep func(time.Duration)
}

// NewReceiver creates a receiver that stores files in sink.
func NewReceiver(sink storage.Sink, opts Options) *Receiver {
	opts = opts.withDefaults()
	id := uuid.New().String()
	return &Receiver{
		id:    id,
		sink:  sink,
		opts:  opts,
		log:   opts.Logger.WithFields(logrus.Fields{"session": id, "role": "receive"}),
		state: StateIdle,
		sleep: time.Sleep,
	}
}

func (r *Receiver) ID() string   { return r.id }
func (r *Receiver) State() State { return r.state }

// Download connects to addr and reads a full session from it.
func (r *Receiver) Download(addr string) (Result, error) {
	conn, err := net.DialTimeout("tcp", addr, r.opts.DialTimeout)
	if err != nil {
		r.state = StateFailed
		err = &ConnectionError{Op: "connect", Addr: addr, Err: err}
		r.log.WithError(err).Error("Download failed")
		return Result{SessionID: r.id, State: r.state}, err
	}
	defer conn.Close()

	r.state = StateConnected
	r.log.WithField("peer", addr).Info("Connected to sender")
	return r.ReadSession(conn)
}

// ReadSession reads the control frame from conn, then each announced file.
// Files finished before a failure stay on disk; the file in progress is
// left partial.
func (r *Receiver) ReadSession(conn io.Reader) (Result, error) {
	res := Result{SessionID: r.id}
	fail := func(err error) (Result, error) {
		r.state = StateFailed
		res.State = r.state
		r.log.WithError(err).Error("Download failed")
		return res, err
	}

	frame := make([]byte, manifest.ControlFrameSize)
	if _, err := io.ReadFull(conn, frame); err != nil {
		return fail(&ConnectionError{Op: "read", Err: err})
	}
	files, err := manifest.Decode(frame)
	if err != nil {
		return fail(err)
	}
	r.state = StateManifestReceived
	r.log.WithField("files", len(files)).Debugf("DOWN - Files-List: %v", files)

	r.state = StateStreaming
	buf := make([]byte, r.opts.ChunkSize)
	for _, f := range files {
		path, err := r.receiveFile(conn, f, buf, &res)
		if err != nil {
			return fail(err)
		}
		res.Files++
		res.Paths = append(res.Paths, path)
	}

	r.state = StateComplete
	res.State = r.state
	r.log.WithFields(logrus.Fields{"files": res.Files, "bytes": res.Bytes}).Info("✅ Download complete")
	return res, nil
}

func (r *Receiver) receiveFile(conn io.Reader, f filetree.FileEntry, buf []byte, res *Result) (string, error) {
	out, path, err := r.sink.Create(f.Path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	log := r.log.WithField("file", path)
	log.Debug("DOWN - Downloading File")

	remaining := f.Size
	for remaining > 0 {
		want := int64(len(buf))
		if remaining < want {
			want = remaining
		}

		n, err := readChunk(conn, buf[:want])
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return path, fmt.Errorf("write %s: %w", path, werr)
			}
			remaining -= int64(n)
			res.Bytes += int64(n)
			log.WithFields(logrus.Fields{"bytes": n, "remaining": remaining}).Debug("DOWN - Received Byte")
		}

		switch {
		case err == nil:
		case errors.Is(err, ErrStalled):
			res.Stalls++
			log.WithField("remaining", remaining).Debug("DOWN - Cannot Received Byte, Retrying...")
			r.sleep(r.opts.RetryInterval)
		case errors.Is(err, io.EOF) && remaining == 0:
		case errors.Is(err, io.EOF):
			return path, &ConnectionError{Op: "read", Err: fmt.Errorf("%w: %s missing %d bytes", ErrTruncatedStream, f.Path, remaining)}
		default:
			return path, &ConnectionError{Op: "read", Err: err}
		}
	}

	if err := out.Close(); err != nil {
		return path, fmt.Errorf("close %s: %w", path, err)
	}
	log.Debug("DOWN - All Byte Received")
	return path, nil
}

// readChunk performs one read, reporting an empty read without an error
// as ErrStalled. A TCP peer that stops sending shows up as io.EOF, not a
// stall, so on a net.Conn an early close is terminal and never retried.
func readChunk(conn io.Reader, buf []byte) (int, error) {
	n, err := conn.Read(buf)
	if n == 0 && err == nil {
		return 0, ErrStalled
	}
	return n, err
}

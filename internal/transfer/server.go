package transfer

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jaywantadh/treecast/internal/filetree"
	"github.com/jaywantadh/treecast/internal/manifest"
	"github.com/jaywantadh/treecast/internal/storage"
)

// Sender serves one snapshot of selected files to exactly one receiver.
// A Sender is single-use: its listener accepts one connection and closes.
type Sender struct {
	id       string
	files    manifest.Manifest
	frame    []byte
	opts     Options
	log      logrus.FieldLogger
	listener net.Listener
	state    State
}

// NewSender snapshots files and builds the control frame. A manifest that
// does not fit the frame fails here, before any socket exists.
func NewSender(files []filetree.FileEntry, opts Options) (*Sender, error) {
	opts = opts.withDefaults()
	snapshot := append(manifest.Manifest(nil), files...)

	frame, err := manifest.Frame(snapshot)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	return &Sender{
		id:    id,
		files: snapshot,
		frame: frame,
		opts:  opts,
		log:   opts.Logger.WithFields(logrus.Fields{"session": id, "role": "send"}),
		state: StateIdle,
	}, nil
}

func (s *Sender) ID() string                  { return s.id }
func (s *Sender) Manifest() manifest.Manifest { return append(manifest.Manifest(nil), s.files...) }
func (s *Sender) State() State                { return s.state }

// Listen binds the single-use listener on addr.
func (s *Sender) Listen(addr string) error {
	if s.listener != nil {
		return ErrAlreadyListening
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		s.state = StateFailed
		return &ConnectionError{Op: "bind", Addr: addr, Err: err}
	}
	s.listener = l
	s.log.Infof("Waiting for receiver on %s", l.Addr())
	return nil
}

// Addr is the bound listener address, nil before Listen.
func (s *Sender) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts one connection, streams the manifest and every file, then
// closes both the connection and the listener.
func (s *Sender) Serve() (Result, error) {
	if s.listener == nil {
		return Result{SessionID: s.id, State: s.state}, ErrNotListening
	}

	conn, err := s.listener.Accept()
	addr := s.listener.Addr().String()
	s.listener.Close()
	if err != nil {
		s.state = StateFailed
		return Result{SessionID: s.id, State: s.state}, &ConnectionError{Op: "accept", Addr: addr, Err: err}
	}
	defer conn.Close()

	s.state = StateConnected
	s.log.WithField("peer", conn.RemoteAddr().String()).Info("Receiver connected")
	return s.WriteSession(conn)
}

// WriteSession writes the control frame followed by each file's bytes, in
// manifest order, to w.
func (s *Sender) WriteSession(w io.Writer) (Result, error) {
	res := Result{SessionID: s.id}
	fail := func(err error) (Result, error) {
		s.state = StateFailed
		res.State = s.state
		s.log.WithError(err).Error("Send failed")
		return res, err
	}

	if _, err := w.Write(s.frame); err != nil {
		return fail(&ConnectionError{Op: "write", Err: err})
	}
	s.state = StateManifestSent
	s.log.WithField("files", len(s.files)).Debug("SEND - Start")

	s.state = StateStreaming
	buf := make([]byte, s.opts.ChunkSize)
	for _, f := range s.files {
		n, err := s.sendFile(w, f, buf)
		res.Bytes += n
		if err != nil {
			return fail(err)
		}
		res.Files++
		res.Paths = append(res.Paths, f.Path)
	}

	s.state = StateComplete
	res.State = s.state
	s.log.WithFields(logrus.Fields{"files": res.Files, "bytes": res.Bytes}).Info("✅ Send complete")
	return res, nil
}

func (s *Sender) sendFile(w io.Writer, f filetree.FileEntry, buf []byte) (int64, error) {
	file, err := storage.OpenFile(f.Path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	log := s.log.WithField("file", f.Path)
	log.Debug("SEND - Sending File")

	// Never send more than announced; the receiver frames files by size.
	r := io.LimitReader(file, f.Size)
	var sent int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return sent, &ConnectionError{Op: "write", Err: werr}
			}
			sent += int64(n)
			log.WithField("bytes", n).Debug("SEND - Sending Byte")
		}
		if errors.Is(err, io.EOF) || (n == 0 && err == nil) {
			break
		}
		if err != nil {
			return sent, fmt.Errorf("read %s: %w", f.Path, err)
		}
	}

	if sent != f.Size {
		return sent, fmt.Errorf("%w: %s announced %d bytes, read %d", ErrSourceChanged, f.Path, f.Size, sent)
	}
	return sent, nil
}

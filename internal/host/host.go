// Package host holds the operator-side state: the scanned upload tree, the
// current selection, the two address inputs and the sessions started from
// them.
package host

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaywantadh/treecast/config"
	"github.com/jaywantadh/treecast/internal/address"
	"github.com/jaywantadh/treecast/internal/filetree"
	"github.com/jaywantadh/treecast/internal/history"
	"github.com/jaywantadh/treecast/internal/storage"
	"github.com/jaywantadh/treecast/internal/transfer"
	"github.com/jaywantadh/treecast/pkg/logging"
)

// Journal records session outcomes. *history.Journal satisfies it.
type Journal interface {
	Put(rec history.SessionRecord) error
}

type Host struct {
	cfg      *config.AppConfig
	log      logrus.FieldLogger
	tracker  *filetree.Tracker
	sink     *storage.LocalStorage
	journal  Journal
	send     *address.Field
	download *address.Field
	wg       sync.WaitGroup
}

// New creates the upload and download roots, scans the upload root once
// and prepares the address inputs. journal may be nil.
func New(cfg *config.AppConfig, log logrus.FieldLogger, journal Journal) (*Host, error) {
	log = logging.Or(log)
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	tree, err := filetree.Scan(cfg.UploadPath)
	if err != nil {
		return nil, err
	}
	sink, err := storage.NewLocalStorage(cfg.DownloadPath)
	if err != nil {
		return nil, err
	}

	log.WithField("files", len(tree.Files())).Infof("Scanned %s", cfg.UploadPath)
	return &Host{
		cfg:      cfg,
		log:      log,
		tracker:  filetree.NewTracker(tree),
		sink:     sink,
		journal:  journal,
		send:     address.NewField(cfg.SendAddress),
		download: address.NewField(cfg.DownloadAddress),
	}, nil
}

func (h *Host) Tracker() *filetree.Tracker    { return h.tracker }
func (h *Host) SendField() *address.Field     { return h.send }
func (h *Host) DownloadField() *address.Field { return h.download }

// StartSend snapshots the selection and serves it from the send address on
// a worker goroutine. Address, frame-size and bind failures come back
// immediately; everything after that only shows up in the log, the
// journal and the receiver's download root.
func (h *Host) StartSend() (string, error) {
	ip, err := h.send.Resolve()
	if err != nil {
		return "", err
	}
	addr := h.cfg.TransferAddr(ip.String())

	sender, err := transfer.NewSender(h.tracker.Selected(), transfer.OptionsFromConfig(h.cfg, h.log))
	if err != nil {
		return "", fmt.Errorf("cannot start transfer: %w", err)
	}
	if err := sender.Listen(addr); err != nil {
		return "", err
	}

	files := sender.Manifest()
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Path)
	}
	h.spawn(history.SessionRecord{
		ID:    sender.ID(),
		Role:  history.RoleSend,
		Peer:  addr,
		Files: names,
	}, sender.Serve)
	return sender.ID(), nil
}

// StartDownload pulls from the download address on a worker goroutine.
func (h *Host) StartDownload() (string, error) {
	ip, err := h.download.Resolve()
	if err != nil {
		return "", err
	}
	addr := h.cfg.TransferAddr(ip.String())

	receiver := transfer.NewReceiver(h.sink, transfer.OptionsFromConfig(h.cfg, h.log))
	h.spawn(history.SessionRecord{
		ID:   receiver.ID(),
		Role: history.RoleReceive,
		Peer: addr,
	}, func() (transfer.Result, error) {
		return receiver.Download(addr)
	})
	return receiver.ID(), nil
}

// Wait blocks until every started session has ended.
func (h *Host) Wait() {
	h.wg.Wait()
}

func (h *Host) spawn(rec history.SessionRecord, run func() (transfer.Result, error)) {
	rec.Status = history.StatusInProgress
	rec.StartedAt = time.Now()
	h.record(rec)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		res, err := run()
		rec.Bytes = res.Bytes
		if rec.Files == nil {
			rec.Files = res.Paths
		}
		rec.FinishedAt = time.Now()
		if err != nil {
			rec.Status = history.StatusFailed
			rec.Error = err.Error()
			h.log.WithFields(logrus.Fields{"session": rec.ID, "role": rec.Role}).WithError(err).Error("❌ Session failed")
		} else {
			rec.Status = history.StatusCompleted
		}
		h.record(rec)
	}()
}

func (h *Host) record(rec history.SessionRecord) {
	if h.journal == nil {
		return
	}
	if err := h.journal.Put(rec); err != nil {
		h.log.WithError(err).Warn("⚠️ Could not journal session")
	}
}

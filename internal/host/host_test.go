package host

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/jaywantadh/treecast/config"
	"github.com/jaywantadh/treecast/internal/history"
	"github.com/jaywantadh/treecast/internal/manifest"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.UploadPath = filepath.Join(base, "root", "uploads")
	cfg.DownloadPath = filepath.Join(base, "root", "downloads")
	cfg.Port = freePort(t)
	cfg.RetryInterval = time.Millisecond
	return cfg
}

func seed(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNewCreatesRoots(t *testing.T) {
	cfg := testConfig(t)
	logger, _ := test.NewNullLogger()
	h, err := New(cfg, logger, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, dir := range []string{cfg.UploadPath, cfg.DownloadPath} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
	if h.Tracker().Len() != 0 {
		t.Error("fresh host has a selection")
	}
	if h.SendField().Text != cfg.SendAddress || h.DownloadField().Text != cfg.DownloadAddress {
		t.Error("address fields not seeded from config")
	}
}

func TestSendAndDownload(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg.UploadPath, map[string]string{
		"a.txt":     "hello",
		"sub/b.txt": "0123456789",
	})

	journal, err := history.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	logger, _ := test.NewNullLogger()
	h, err := New(cfg, logger, journal)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := h.Tracker().ToggleFolder(filepath.Clean(cfg.UploadPath)); err != nil {
		t.Fatalf("ToggleFolder: %v", err)
	}

	sendID, err := h.StartSend()
	if err != nil {
		t.Fatalf("StartSend: %v", err)
	}
	recvID, err := h.StartDownload()
	if err != nil {
		t.Fatalf("StartDownload: %v", err)
	}
	h.Wait()

	for name, want := range map[string]string{"a.txt": "hello", "b.txt": "0123456789"} {
		got, err := os.ReadFile(filepath.Join(cfg.DownloadPath, name))
		if err != nil || string(got) != want {
			t.Errorf("%s = %q, %v", name, got, err)
		}
	}

	for _, id := range []string{sendID, recvID} {
		rec, err := journal.Get(id)
		if err != nil {
			t.Fatalf("journal.Get(%s): %v", id, err)
		}
		if rec.Status != history.StatusCompleted || rec.Bytes != 15 || len(rec.Files) != 2 {
			t.Errorf("record %+v", rec)
		}
		if rec.FinishedAt.Before(rec.StartedAt) {
			t.Errorf("record times out of order: %+v", rec)
		}
	}

	sendRec, _ := journal.Get(sendID)
	if want := cfg.TransferAddr(cfg.SendAddress); sendRec.Peer != want {
		t.Errorf("send peer = %q, want %q", sendRec.Peer, want)
	}
	if len(sendRec.Files) == 0 || sendRec.Files[0] != filepath.Join(cfg.UploadPath, "a.txt") {
		t.Errorf("send files = %v", sendRec.Files)
	}
}

func TestStartWithBadAddress(t *testing.T) {
	cfg := testConfig(t)
	logger, _ := test.NewNullLogger()
	h, err := New(cfg, logger, nil)
	if err != nil {
		t.Fatal(err)
	}

	h.SendField().Text = "999.1.1.1"
	if _, err := h.StartSend(); err == nil {
		t.Error("StartSend accepted a bad address")
	}
	if !strings.Contains(h.SendField().Text, "invalid IPv4 address") {
		t.Errorf("send field = %q", h.SendField().Text)
	}

	h.DownloadField().Text = "nope"
	if _, err := h.StartDownload(); err == nil {
		t.Error("StartDownload accepted a bad address")
	}
	if !strings.Contains(h.DownloadField().Text, "invalid IPv4 address") {
		t.Errorf("download field = %q", h.DownloadField().Text)
	}
	h.Wait()
}

func TestOversizedSelectionNeverBinds(t *testing.T) {
	cfg := testConfig(t)
	files := make(map[string]string)
	for i := 0; i < 60; i++ {
		files[fmt.Sprintf("a-rather-long-file-name-number-%03d.txt", i)] = "x"
	}
	seed(t, cfg.UploadPath, files)

	logger, _ := test.NewNullLogger()
	h, err := New(cfg, logger, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Tracker().ToggleFolder(filepath.Clean(cfg.UploadPath)); err != nil {
		t.Fatal(err)
	}

	if _, err := h.StartSend(); !errors.Is(err, manifest.ErrFrameOverflow) {
		t.Fatalf("got %v, want ErrFrameOverflow", err)
	}

	// The transfer port must still be free.
	l, err := net.Listen("tcp", cfg.TransferAddr(cfg.SendAddress))
	if err != nil {
		t.Errorf("port was bound by a failed send: %v", err)
	} else {
		l.Close()
	}
}

func TestFailedDownloadIsJournaled(t *testing.T) {
	cfg := testConfig(t)
	journal, err := history.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	logger, _ := test.NewNullLogger()
	h, err := New(cfg, logger, journal)
	if err != nil {
		t.Fatal(err)
	}

	// Nothing listens on the port, so the worker fails on connect.
	id, err := h.StartDownload()
	if err != nil {
		t.Fatalf("StartDownload: %v", err)
	}
	h.Wait()

	rec, err := journal.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != history.StatusFailed || !strings.Contains(rec.Error, "connect") {
		t.Errorf("record %+v", rec)
	}
}

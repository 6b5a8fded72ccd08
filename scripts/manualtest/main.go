package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/jaywantadh/treecast/config"
	"github.com/jaywantadh/treecast/internal/host"
	"github.com/jaywantadh/treecast/pkg/logging"
)

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeRandom(path string, size int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.CopyN(f, rand.Reader, size)
	return err
}

// Runs one send/receive cycle over loopback and compares hashes.
func main() {
	base, err := os.MkdirTemp("", "treecast_manual")
	if err != nil {
		fmt.Printf("❌ Temp dir failed: %v\n", err)
		return
	}
	defer os.RemoveAll(base)

	cfg := config.Default()
	cfg.UploadPath = filepath.Join(base, "root", "uploads")
	cfg.DownloadPath = filepath.Join(base, "root", "downloads")
	cfg.Debug = os.Getenv("DEBUG") != ""

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Printf("❌ No free port: %v\n", err)
		return
	}
	cfg.Port = l.Addr().(*net.TCPAddr).Port
	l.Close()

	logging.InitLogger(cfg.Debug)

	samples := map[string]int64{
		"a.txt":          5,
		"sub/b.txt":      10,
		"sub/deep/c.bin": 3 << 20,
	}
	for rel, size := range samples {
		if err := writeRandom(filepath.Join(cfg.UploadPath, rel), size); err != nil {
			fmt.Printf("❌ Sample %s failed: %v\n", rel, err)
			return
		}
	}

	h, err := host.New(cfg, logging.Log, nil)
	if err != nil {
		fmt.Printf("❌ Host init failed: %v\n", err)
		return
	}
	if err := h.Tracker().ToggleFolder(filepath.Clean(cfg.UploadPath)); err != nil {
		fmt.Printf("❌ Select failed: %v\n", err)
		return
	}

	start := time.Now()
	if _, err := h.StartSend(); err != nil {
		fmt.Printf("❌ Send failed: %v\n", err)
		return
	}
	if _, err := h.StartDownload(); err != nil {
		fmt.Printf("❌ Download failed: %v\n", err)
		return
	}
	h.Wait()
	fmt.Printf("📦 Cycle finished in %s\n", time.Since(start))

	ok := true
	for rel := range samples {
		origHash, err := sha256File(filepath.Join(cfg.UploadPath, rel))
		if err != nil {
			fmt.Printf("❌ Failed hashing original: %v\n", err)
			return
		}
		gotHash, err := sha256File(filepath.Join(cfg.DownloadPath, filepath.Base(rel)))
		if err != nil {
			fmt.Printf("❌ %s missing: %v\n", filepath.Base(rel), err)
			ok = false
			continue
		}
		if gotHash != origHash {
			fmt.Printf("❌ MISMATCH: %s\n", rel)
			ok = false
		}
	}
	if ok {
		fmt.Println("✅ SUCCESS: Downloaded files match originals")
	}
}

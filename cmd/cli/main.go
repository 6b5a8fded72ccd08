package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/jaywantadh/treecast/config"
	"github.com/jaywantadh/treecast/internal/address"
	"github.com/jaywantadh/treecast/internal/history"
	"github.com/jaywantadh/treecast/internal/host"
	"github.com/jaywantadh/treecast/pkg/env"
	"github.com/jaywantadh/treecast/pkg/logging"
)

func main() {
	env.LoadEnv()

	app := &cli.App{
		Name:  "treecast",
		Usage: "Advertise files from a directory tree and pull them over TCP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   env.GetEnv("TREECAST_CONFIG_DIR", "./config"),
				Usage:   "directory holding config.yaml",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Value: env.GetEnvBool("TREECAST_DEBUG", false),
				Usage: "verbose text logs",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			logging.InitLogger(c.Bool("debug") || cfg.Debug)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:    "tree",
				Aliases: []string{"t"},
				Usage:   "Show the upload tree",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "select", Aliases: []string{"s"}, Usage: "toggle a file or folder before printing"},
				},
				Action: treeAction,
			},
			{
				Name:    "send",
				Aliases: []string{"s"},
				Usage:   "Serve the selected files to one receiver",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Usage: "IPv4 address to listen on"},
					&cli.StringSliceFlag{Name: "select", Aliases: []string{"s"}, Usage: "file or folder to toggle, relative to the upload root", Required: true},
				},
				Action: sendAction,
			},
			{
				Name:    "receive",
				Aliases: []string{"r"},
				Usage:   "Download everything a sender offers",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Aliases: []string{"f"}, Usage: "IPv4 address of the sender"},
				},
				Action: receiveAction,
			},
			{
				Name:   "history",
				Usage:  "List past sessions",
				Action: historyAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logging.Log.Fatal(err)
	}
}

func newHost(journal host.Journal) (*host.Host, error) {
	return host.New(config.Config, logging.Log, journal)
}

func openJournal() (*history.Journal, error) {
	j, err := history.Open(config.Config.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session history: %w", err)
	}
	return j, nil
}

// toggleAll toggles each path; relative paths are taken from the upload root.
func toggleAll(h *host.Host, paths []string) error {
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(config.Config.UploadPath, p)
		}
		if err := h.Tracker().Toggle(filepath.Clean(p)); err != nil {
			return err
		}
	}
	return nil
}

// exitWith reports a failed start. Address errors are shown the way the
// field now reads, since the message replaced the typed text.
func exitWith(field *address.Field, err error) error {
	var parseErr *address.ParseError
	if errors.As(err, &parseErr) {
		return cli.Exit(field.Text, 1)
	}
	return cli.Exit(err.Error(), 1)
}

func treeAction(c *cli.Context) error {
	h, err := newHost(nil)
	if err != nil {
		return err
	}
	if err := toggleAll(h, c.StringSlice("select")); err != nil {
		return err
	}
	printTree(os.Stdout, h.Tracker())
	printSelection(os.Stdout, h.Tracker().Selected())
	return nil
}

func sendAction(c *cli.Context) error {
	journal, err := openJournal()
	if err != nil {
		return err
	}
	defer journal.Close()

	h, err := newHost(journal)
	if err != nil {
		return err
	}
	if err := toggleAll(h, c.StringSlice("select")); err != nil {
		return err
	}
	printSelection(os.Stdout, h.Tracker().Selected())

	if bind := c.String("bind"); bind != "" {
		h.SendField().Text = bind
	}
	id, err := h.StartSend()
	if err != nil {
		return exitWith(h.SendField(), err)
	}
	logging.Log.WithField("session", id).Info("🚀 Send session started")
	h.Wait()
	return nil
}

func receiveAction(c *cli.Context) error {
	journal, err := openJournal()
	if err != nil {
		return err
	}
	defer journal.Close()

	h, err := newHost(journal)
	if err != nil {
		return err
	}
	if from := c.String("from"); from != "" {
		h.DownloadField().Text = from
	}
	id, err := h.StartDownload()
	if err != nil {
		return exitWith(h.DownloadField(), err)
	}
	logging.Log.WithField("session", id).Info("🚀 Download session started")
	h.Wait()
	return nil
}

func historyAction(c *cli.Context) error {
	journal, err := openJournal()
	if err != nil {
		return err
	}
	defer journal.Close()

	records, err := journal.List()
	if err != nil {
		return err
	}
	printHistory(os.Stdout, records)
	return nil
}

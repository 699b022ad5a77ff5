// SPDX-License-Identifier: MIT

// Command gcgp runs the G-code protocol driver against a simulated machine.
//
// Without a serial port or listen address it starts an interactive prompt; single-character
// lines `?`, `!` & `~` are sent as immediate commands, `^X` as a soft reset.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"

	"gitlab.com/fisherprime/gcgp"
	"gitlab.com/fisherprime/gcgp/protocol"
)

type options struct {
	port          string
	baud          int
	list          bool
	listen        string
	ws            string
	workers       int
	debug         bool
	numericErrors bool
}

const (
	prompt      = "gcgp> "
	historyFile = ".gcgp_history"
)

func main() {
	var opts options

	flag.StringVar(&opts.port, "port", "", "serial device to serve")
	flag.IntVar(&opts.baud, "baud", protocol.DefaultBaudRate, "serial baud rate")
	flag.BoolVar(&opts.list, "list", false, "list serial ports & exit")
	flag.StringVar(&opts.listen, "listen", "", "TCP address to serve")
	flag.StringVar(&opts.ws, "ws", "", "HTTP address to serve websockets on")
	flag.IntVar(&opts.workers, "workers", protocol.DefaultWorkers, "maximum concurrent connections")
	flag.BoolVar(&opts.debug, "debug", false, "log lexer, interpreter & driver traces")
	flag.BoolVar(&opts.numericErrors, "numeric-errors", false, "report error codes instead of messages")
	flag.Parse()

	os.Exit(run(opts))
}

func run(opts options) int {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if opts.debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	protocol.SetLogger(logger)
	gcgp.SetLogger(logger)

	if opts.list {
		ports, err := protocol.SerialPorts()
		if err != nil {
			logger.Error(err)
			return 1
		}
		for _, port := range ports {
			fmt.Println(port)
		}

		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &protocol.Config{Logger: logger, Debug: opts.debug, NumericErrors: opts.numericErrors}
	cfg.Validate()

	mc := newMachine(logger)

	var err error
	switch {
	case opts.port != "":
		err = protocol.ServeSerial(ctx, opts.port, opts.baud, mc.Host(), protocol.WithConfig(cfg))
	case opts.listen != "" || opts.ws != "":
		err = serveNetwork(ctx, opts, cfg, mc)
	default:
		err = repl(ctx, cfg, mc)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(err)
		return 1
	}

	return 0
}

func serveNetwork(ctx context.Context, opts options, cfg *protocol.Config, mc *machine) error {
	s, err := protocol.NewServer(&protocol.ServerConfig{
		Logger:  cfg.Logger,
		Workers: opts.workers,
		Driver:  cfg,
		NewHost: mc.Host,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	return s.ListenAndServe(ctx, opts.listen, opts.ws)
}

// repl feeds prompted lines to a Driver writing to stdout.
func repl(ctx context.Context, cfg *protocol.Config, mc *machine) (err error) {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, hErr := os.Open(histPath); hErr == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, hErr := os.Create(histPath); hErr == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	in := protocol.NewQueue(protocol.DefaultQueueSize)
	d := protocol.NewDriver(protocol.NewStreamTransport(in, os.Stdout), mc.Host(), protocol.WithConfig(cfg))

	for ctx.Err() == nil {
		line, pErr := ln.Prompt(prompt)
		if errors.Is(pErr, liner.ErrPromptAborted) || errors.Is(pErr, io.EOF) {
			return nil
		}
		if pErr != nil {
			return pErr
		}

		// Lines may exceed the Queue, drain as it fills.
		for _, c := range replInput(line) {
			for !in.Push(c) {
				d.Update()
			}
		}
		d.Update()

		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
	}

	return ctx.Err()
}

// replInput maps a prompted line to driver input.
func replInput(line string) []byte {
	switch trimmed := strings.TrimSpace(line); trimmed {
	case "?", "!", "~":
		return []byte(trimmed)
	case "^X":
		return []byte{protocol.CmdSoftReset}
	}

	return []byte(line + "\n")
}

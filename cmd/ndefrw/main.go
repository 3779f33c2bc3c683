// go-nfc
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-nfc.
//
// go-nfc is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-nfc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-nfc; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Command ndefrw waits for an NFC tag, writes an NDEF text record to it and
// reads the record back.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	nfc "github.com/ZaparooProject/go-nfc"
	"github.com/ZaparooProject/go-nfc/libnfcnci"
	"github.com/ZaparooProject/go-nfc/pn532"
	"github.com/ZaparooProject/go-nfc/pn532/transport/i2c"
	"github.com/ZaparooProject/go-nfc/pn532/transport/uart"
)

const (
	backendUART      = "pn532-uart"
	backendI2C       = "pn532-i2c"
	backendLibnfcnci = "libnfcnci"
)

type config struct {
	backend  *string
	device   *string
	text     *string
	uri      *string
	lang     *string
	timeout  *time.Duration
	readOnly *bool
	debug    *bool
}

func parseFlags() *config {
	cfg := &config{
		backend: flag.String("backend", "",
			"Controller backend: pn532-uart, pn532-i2c or libnfcnci. Empty picks from -device."),
		device: flag.String("device", "",
			"Serial port or I2C bus (e.g. /dev/ttyUSB0, /dev/i2c-1). Leave empty for auto-detection."),
		text:     flag.String("text", "Hello Go", "Text to write to the tag"),
		uri:      flag.String("uri", "", "Write a URI record instead of text"),
		lang:     flag.String("lang", "en", "Language code of the text record"),
		timeout:  flag.Duration("timeout", 10*time.Second, "How long to wait for a tag"),
		readOnly: flag.Bool("read", false, "Only read the tag"),
		debug:    flag.Bool("debug", false, "Enable debug logging"),
	}
	flag.Parse()
	return cfg
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// closableController is what every backend constructor returns
type closableController interface {
	nfc.Controller
	Close() error
}

func pickBackend(backend, device string) string {
	if backend != "" {
		return backend
	}
	if strings.Contains(strings.ToLower(device), "i2c") {
		return backendI2C
	}
	return backendUART
}

func detectSerialPort(logger zerolog.Logger) (string, error) {
	ports, err := uart.ListPorts(uart.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list serial ports: %w", err)
	}
	if len(ports) == 0 {
		return "", errors.New("no serial ports found, use -device")
	}
	p := ports[0]
	logger.Info().Str("port", p.Name).Str("bridge", p.Bridge).Msg("using detected serial port")
	return p.Name, nil
}

func detectI2CBus(logger zerolog.Logger) (string, error) {
	buses, err := i2c.ListBuses()
	if err != nil {
		return "", fmt.Errorf("failed to list I2C buses: %w", err)
	}
	for _, bus := range buses {
		if err := i2c.Probe(bus); err != nil {
			logger.Debug().Err(err).Str("bus", bus).Msg("no PN532 on bus")
			continue
		}
		logger.Info().Str("bus", bus).Msg("using detected I2C bus")
		return bus, nil
	}
	return "", errors.New("no PN532 found on any I2C bus, use -device")
}

func newTransport(backend, device string, logger zerolog.Logger) (pn532.Transport, error) {
	var err error
	switch backend {
	case backendUART:
		if device == "" {
			if device, err = detectSerialPort(logger); err != nil {
				return nil, err
			}
		}
		tr, err := uart.New(device)
		if err != nil {
			return nil, fmt.Errorf("failed to create UART transport: %w", err)
		}
		return tr, nil
	case backendI2C:
		if device == "" {
			if device, err = detectI2CBus(logger); err != nil {
				return nil, err
			}
		}
		tr, err := i2c.New(device)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport: %w", err)
		}
		return tr, nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

func newController(cfg *config, logger zerolog.Logger) (closableController, error) {
	backend := pickBackend(*cfg.backend, *cfg.device)
	if backend == backendLibnfcnci {
		ctrl, err := libnfcnci.New(libnfcnci.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to open libnfc-nci: %w", err)
		}
		return ctrl, nil
	}

	tr, err := newTransport(backend, *cfg.device, logger)
	if err != nil {
		return nil, err
	}
	ctrl, err := pn532.New(tr, pn532.WithLogger(logger))
	if err != nil {
		_ = tr.Close()
		return nil, fmt.Errorf("failed to create PN532 controller: %w", err)
	}
	return ctrl, nil
}

func readBack(s *nfc.Session, tag nfc.TagInfo, logger zerolog.Logger) error {
	info, err := s.IsNdef(tag)
	if err != nil {
		return err
	}
	if !info.IsNdef {
		logger.Info().Msg("tag is not NDEF formatted")
		return nil
	}

	if rec, err := s.ReadText(tag); err == nil {
		_, _ = fmt.Printf("Text (%s): %s\n", rec.Language, rec.Text)
		return nil
	} else if !errors.Is(err, nfc.ErrUnexpectedType) {
		return err
	}

	uri, err := s.ReadURI(tag)
	if err != nil {
		return err
	}
	_, _ = fmt.Printf("URI: %s\n", uri)
	return nil
}

func session(cfg *config, logger zerolog.Logger) func(*nfc.Session) error {
	return func(s *nfc.Session) error {
		_, _ = fmt.Println("Waiting for tag...")
		tag, err := s.WaitForTag(*cfg.timeout)
		if err != nil {
			return err
		}
		_, _ = fmt.Printf("Found %s\n", tag)

		if !*cfg.readOnly {
			info, err := s.EnsureNdef(tag)
			if err != nil {
				return err
			}
			logger.Debug().Int("max_length", info.MaxLength).Bool("writable", info.Writable).Msg("tag ready")

			if *cfg.uri != "" {
				err = s.WriteURI(tag, *cfg.uri)
			} else {
				err = s.WriteText(tag, *cfg.lang, *cfg.text)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Println("Write successful")
		}

		return readBack(s, tag, logger)
	}
}

func run(cfg *config) error {
	logger := newLogger(*cfg.debug)

	ctrl, err := newController(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := ctrl.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close controller")
		}
	}()

	mgr, err := nfc.NewManager(ctrl, nfc.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create manager: %w", err)
	}
	return mgr.RunSession(session(cfg, logger))
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

// Command chainsim replays the core library's test scenarios end-to-end
// against real, wired-up EventGraph and MessageChains instances, logging
// every inspector notification and chain operation. It never opens a
// network socket: everything happens in-process, the way
// manager/config.go's LoadConfig/SaveConfig round-trip a JSON file on disk
// without touching the network either.
package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the chainsim run configuration. Devices other than "0" are the
// peers alice@"0" exchanges messages with over the course of the scenario.
type Config struct {
	Scenario  string `json:"scenario"`   // "two_device" or "dropped_message"
	Hasher    string `json:"hasher"`     // "sha256" (canonical) or "blake2s" (non-canonical demo alternate)
	LocalID   string `json:"local_id"`   // the simulated local device's id
	PeerID    string `json:"peer_id"`    // the simulated peer device's id
	LogLevel  string `json:"log_level"`  // "verbose" or "quiet"
}

func defaultConfig() Config {
	return Config{
		Scenario: "dropped_message",
		Hasher:   "sha256",
		LocalID:  "0",
		PeerID:   "1",
		LogLevel: "verbose",
	}
}

// loadConfig reads a JSON config from path, falling back to defaultConfig
// if path is empty or the file does not exist.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

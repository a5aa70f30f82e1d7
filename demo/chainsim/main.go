/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/princeton-sns/frida-go/corelog"
	"github.com/princeton-sns/frida-go/eventgraph"
	"github.com/princeton-sns/frida-go/msgchains"
)

// traceInspector logs every structural notification to a *corelog.Logger,
// tagged with a fresh trace ID per run so interleaved demo output from
// multiple simulated devices can be told apart.
type traceInspector struct {
	trace string
	log   *corelog.Logger
}

func (t *traceInspector) AddVertex(label string) {
	t.log.Verbosef("[%s] add_vertex %s", t.trace, label)
}
func (t *traceInspector) SetRoot(label string, isRoot bool) {
	t.log.Verbosef("[%s] set_root %s=%v", t.trace, label, isRoot)
}
func (t *traceInspector) SetLeaf(label string, isLeaf bool) {
	t.log.Verbosef("[%s] set_leaf %s=%v", t.trace, label, isLeaf)
}
func (t *traceInspector) AddEdge(from, to string) {
	t.log.Verbosef("[%s] add_edge %s->%s", t.trace, from, to)
}
func (t *traceInspector) DeviceKnows(device, label string) {
	t.log.Verbosef("[%s] device_knows %s %s", t.trace, device, label)
}
func (t *traceInspector) RemoveEdge(from, to string) {
	t.log.Verbosef("[%s] remove_edge %s->%s", t.trace, from, to)
}
func (t *traceInspector) RemoveVertex(label string) {
	t.log.Verbosef("[%s] remove_vertex %s", t.trace, label)
}

func newHasher(kind string) (msgchains.Hasher[msgchains.DeviceID], error) {
	switch kind {
	case "", "sha256":
		return msgchains.NewSha256Hasher[msgchains.DeviceID](), nil
	case "blake2s":
		return msgchains.NewBlake2sHasher[msgchains.DeviceID](), nil
	default:
		return nil, fmt.Errorf("unknown hasher %q", kind)
	}
}

func main() {
	configPath := flag.String("config", "", "path to a JSON chainsim config file (optional)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("chainsim: %v", err)
	}

	logger := corelog.NewLogger(os.Stdout, "chainsim")
	if cfg.LogLevel == "quiet" {
		logger = corelog.NewEmpty()
	}

	hasher, err := newHasher(cfg.Hasher)
	if err != nil {
		log.Fatalf("chainsim: %v", err)
	}

	local := msgchains.DeviceID(cfg.LocalID)
	peer := msgchains.DeviceID(cfg.PeerID)

	localChains := msgchains.New(local, hasher)
	peerChains := msgchains.New(peer, hasher)

	localGraph := eventgraph.NewWithInspector[string, string](
		cfg.LocalID, &traceInspector{trace: uuid.NewString()[:8], log: logger}, logger)

	recipients := []msgchains.DeviceID{local, peer}
	msgchains.SortRecipients(recipients)

	send := func(sender *msgchains.MessageChains[msgchains.DeviceID], senderID, text string) int {
		digest := sender.SendMessage([]byte(text), recipients)
		label := fmt.Sprintf("%s:%s", senderID, digest[:4])
		if sender == localChains {
			if err := localGraph.InsertEvent(senderID, label, nil); err != nil {
				log.Fatalf("chainsim: insert_event: %v", err)
			}
		}
		localSeq, err := sender.InsertMessage(msgchains.DeviceID(senderID), []byte(text), recipients)
		if err != nil {
			log.Fatalf("chainsim: insert_message(own echo): %v", err)
		}
		logger.Verbosef("%s sent %q (local_seq=%d)", senderID, text, localSeq)
		return localSeq
	}

	logger.Verbosef("=== chainsim: scenario=%s hasher=%s ===", cfg.Scenario, cfg.Hasher)

	send(localChains, cfg.LocalID, "Hi peer!")
	if _, err := peerChains.InsertMessage(msgchains.DeviceID(cfg.LocalID), []byte("Hi peer!"), recipients); err != nil {
		log.Fatalf("chainsim: peer ingest: %v", err)
	}

	vp, ok := localChains.ValidationPayload(peer)
	if ok {
		if _, err := peerChains.ValidateTrimChain(local, &vp); err != nil {
			log.Fatalf("chainsim: peer validate_trim_chain: %v", err)
		}
	}

	if cfg.Scenario == "dropped_message" {
		// Captured before either send, so it is the payload both messages carry.
		vp2, ok := localChains.ValidationPayload(peer)

		digest := localChains.SendMessage([]byte("ignore this one"), recipients)
		logger.Verbosef("local queued a message the peer will never see (digest %x)", digest[:4])
		if _, err := localChains.InsertMessage(local, []byte("ignore this one"), recipients); err != nil {
			log.Fatalf("chainsim: local self-ingest of dropped message: %v", err)
		}

		send(localChains, cfg.LocalID, "We're no longer friends.")

		if ok {
			trimmed, err := peerChains.ValidateTrimChain(local, &vp2)
			if err != nil {
				log.Fatalf("chainsim: peer validate_trim_chain after drop: %v", err)
			}
			logger.Verbosef("peer trimmed %d entries despite never seeing the dropped message", trimmed)
		}
	}

	logger.Verbosef("=== chainsim: done ===")
}

// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"pulse/cmd"
	"pulse/internal/audio"
	"pulse/internal/config"
	"pulse/internal/haptics"
	"pulse/internal/log"
	"pulse/internal/media"
	"pulse/internal/session"
	"pulse/pkg/build"
)

func main() {
	build.Initialize()

	// One core for the audio callback, one for dispatch and control.
	runtime.GOMAXPROCS(2)

	cfg, err := cmd.ParseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg == nil {
		// Help or version output already printed by the CLI.
		return
	}

	if cfg.Debug {
		log.SetLevel(log.LevelDebug)
	} else if lvl, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(lvl)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(cfg *config.Config) error {
	if cfg.Command == "list" {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
		return audio.ListDevices()
	}

	emitter, err := buildEmitter(cfg)
	if err != nil {
		return err
	}
	defer emitter.Close()

	source, sampleRate, usesPortAudio, err := buildSource(cfg)
	if err != nil {
		return err
	}
	if usesPortAudio {
		defer audio.Terminate()
	}

	sess, err := session.New(cfg.Audio.FramesPerBuffer, sampleRate, source, emitter)
	if err != nil {
		return err
	}

	var recorder *audio.Recorder
	if cfg.Recording.Enabled {
		if err := os.MkdirAll(cfg.Recording.OutputDir, 0o755); err != nil {
			return fmt.Errorf("creating recording directory: %w", err)
		}
		name := fmt.Sprintf("pulse-%s.wav", time.Now().Format("20060102-150405"))
		recorder = &audio.Recorder{}
		if err := recorder.Start(filepath.Join(cfg.Recording.OutputDir, name),
			sampleRate, cfg.Audio.FramesPerBuffer); err != nil {
			return err
		}
		sess.AttachRecorder(recorder)
	}

	if err := sess.Start(); err != nil {
		if recorder != nil {
			recorder.Stop()
		}
		return err
	}

	waitForExit(source)

	return sess.Stop()
}

// buildEmitter constructs the configured haptic backend.
func buildEmitter(cfg *config.Config) (haptics.Emitter, error) {
	switch cfg.Haptics.Emitter {
	case config.EmitterWebSocket:
		em, err := haptics.NewWebSocketEmitter(cfg.Haptics.WebSocketAddr)
		if err != nil {
			return nil, fmt.Errorf("starting websocket emitter: %w", err)
		}
		return em, nil
	case config.EmitterUDP:
		em, err := haptics.NewUDPEmitter(cfg.Haptics.UDPTarget)
		if err != nil {
			return nil, fmt.Errorf("starting udp emitter: %w", err)
		}
		return em, nil
	default:
		return haptics.NewLogEmitter(), nil
	}
}

// buildSource selects the audio source for the requested mode and
// returns it with the sample rate the analysis must run at. File
// playback is analyzed at the file's own rate; live capture at the
// configured device rate.
func buildSource(cfg *config.Config) (audio.Source, float64, bool, error) {
	if cfg.PlayTarget != "" {
		target := cfg.PlayTarget
		if media.IsRemote(target) {
			local, err := media.NewFetcher(cfg.Media.CacheDir).
				Fetch(context.Background(), target)
			if err != nil {
				return nil, 0, false, err
			}
			target = local
		}

		rate, err := audio.WAVSampleRate(target)
		if err != nil {
			return nil, 0, false, err
		}
		return audio.NewFileSource(target, cfg.Audio.FramesPerBuffer), rate, false, nil
	}

	if err := audio.Initialize(); err != nil {
		return nil, 0, false, err
	}
	source, err := audio.NewInputSource(cfg.Audio)
	if err != nil {
		audio.Terminate()
		return nil, 0, false, err
	}
	return source, cfg.Audio.SampleRate, true, nil
}

// waitForExit blocks until the user interrupts or, for file playback,
// the file runs out.
func waitForExit(source audio.Source) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	if fs, ok := source.(*audio.FileSource); ok {
		select {
		case <-sig:
			log.Infof("shutting down")
		case <-fs.Done():
		}
		return
	}

	<-sig
	log.Infof("shutting down")
}

// SPDX-License-Identifier: MIT
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"pulse/internal/config"
	"pulse/pkg/build"
)

// ParseArgs parses the command line, loads the YAML configuration and
// applies any flags the user set on top of it. The returned Config also
// carries the selected runtime mode (live analysis, file playback, or a
// one-off command).
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	var (
		cfg        *config.Config
		configPath string

		deviceID        int
		sampleRate      float64
		framesPerBuffer int
		channels        int
		lowLatency      bool
		emitter         string
		record          bool
		verbose         bool
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time audio analysis with haptic feedback triggering",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded

			// Flags the user set win over the config file.
			if cmd.Flags().Changed("device") {
				cfg.Audio.InputDevice = deviceID
			}
			if cmd.Flags().Changed("sample-rate") {
				cfg.Audio.SampleRate = sampleRate
			}
			if cmd.Flags().Changed("frames-per-buffer") {
				cfg.Audio.FramesPerBuffer = framesPerBuffer
			}
			if cmd.Flags().Changed("channels") {
				cfg.Audio.InputChannels = channels
			}
			if cmd.Flags().Changed("low-latency") {
				cfg.Audio.LowLatency = lowLatency
			}
			if cmd.Flags().Changed("emitter") {
				cfg.Haptics.Emitter = emitter
			}
			if cmd.Flags().Changed("record") {
				cfg.Recording.Enabled = record
			}
			if cmd.Flags().Changed("verbose") {
				cfg.Debug = verbose
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Live = true
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			cfg.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	playCmd := &cobra.Command{
		Use:   "play <file-or-url>",
		Short: "Analyze a WAV file or remote media URL at real-time cadence",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg.PlayTarget = args[0]
		},
	}
	rootCmd.AddCommand(playCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML configuration file")

	// Audio Device Configuration
	rootCmd.PersistentFlags().IntVarP(&deviceID, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use 'list' to see available devices.")
	rootCmd.PersistentFlags().Float64VarP(&sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"Frames per analysis buffer (power of 2, affects latency and frequency resolution)")
	rootCmd.PersistentFlags().IntVarP(&channels, "channels", "c", config.DefaultInputChannels,
		"Number of channels to capture (1=mono, 2=stereo; analysis uses channel 0)")
	rootCmd.PersistentFlags().BoolVarP(&lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")

	// Haptics Configuration
	rootCmd.PersistentFlags().StringVarP(&emitter, "emitter", "e", config.DefaultEmitter,
		"Haptic emission backend: log, websocket or udp")

	// Recording Configuration
	rootCmd.PersistentFlags().BoolVarP(&record, "record", "r", false,
		"Record the mono analysis channel to a WAV file")

	// Debug Configuration
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return cfg, nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/onair/internal/config"
	"github.com/stellarlinkco/onair/internal/schedule"
	"github.com/stellarlinkco/onair/internal/studio"
)

var rootCmd = &cobra.Command{
	Use:   "onair",
	Short: "onair - autonomous virtual broadcaster",
}

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Go live now and broadcast until interrupted",
	RunE:  runBroadcast,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run broadcasts on the configured weekly timetable",
	RunE:  runSchedule,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config and persona files",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show onair configuration status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(broadcastCmd, scheduleCmd, onboardCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runBroadcast(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := studio.New(cfg)
	if err != nil {
		return fmt.Errorf("create studio: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	return st.Run(ctx)
}

// sessionBroadcast adapts the studio to the scheduler's session
// interface.
type sessionBroadcast struct{ st *studio.Studio }

func (b sessionBroadcast) Run(ctx context.Context) {
	b.st.Run(ctx)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := studio.New(cfg)
	if err != nil {
		return fmt.Errorf("create studio: %w", err)
	}

	sched, err := schedule.New(cfg.Schedule, sessionBroadcast{st}, st.EndingManager(),
		rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

const defaultPersonaYAML = `name: Hoshino
age: 18
personality: cheerful, curious, a little mischievous
speaking_style: casual and friendly, short sentences
interests:
  - indie games
  - synthwave music
  - late night snacks
background: A virtual broadcaster who streams from a tiny room full of plants.
catch_phrases:
  - "okay okay okay!"
  - "chat, you won't believe this"
rules:
  - Never read out personal information from chat.
  - Keep reactions family friendly.
`

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		data, _ := json.MarshalIndent(cfg, "", "  ")
		if err := os.WriteFile(cfgPath, data, 0644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if _, err := os.Stat(cfg.Persona.Path); os.IsNotExist(err) {
		if err := os.WriteFile(cfg.Persona.Path, []byte(defaultPersonaYAML), 0644); err != nil {
			return fmt.Errorf("write persona: %w", err)
		}
		fmt.Printf("Created persona: %s\n", cfg.Persona.Path)
	} else {
		fmt.Printf("Persona already exists: %s\n", cfg.Persona.Path)
	}

	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Edit %s to pick a platform and provider\n", cfgPath)
	fmt.Printf("  2. Edit %s to shape the character\n", cfg.Persona.Path)
	fmt.Println("  3. Run 'onair broadcast' to go live")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Mode: %s\n", cfg.Broadcast.Mode)
	fmt.Printf("Provider: %s (%s)\n", cfg.Provider.Type, cfg.Provider.Model)
	fmt.Printf("Platform: %s\n", platformDisplay(cfg.Platform.Active))
	fmt.Printf("Persona: %s\n", cfg.Persona.Path)
	fmt.Printf("Voice: enabled=%v\n", cfg.Voice.Enabled)
	fmt.Printf("Game mode: enabled=%v (%d games)\n", cfg.Game.Enabled, len(cfg.Game.Games))
	fmt.Printf("Sink: enabled=%v\n", cfg.Sink.Enabled)
	fmt.Printf("Metrics: enabled=%v addr=%s\n", cfg.Metrics.Enabled, cfg.Metrics.Addr)
	fmt.Printf("Telegram: enabled=%v\n", cfg.Notify.Telegram.Enabled)

	if len(cfg.Schedule.StartTimes) == 0 && len(cfg.Schedule.CronExprs) == 0 {
		fmt.Println("Schedule: not configured")
	} else {
		fmt.Printf("Schedule: %d weekly starts, %d cron entries, %d-%d min sessions\n",
			len(cfg.Schedule.StartTimes), len(cfg.Schedule.CronExprs),
			cfg.Schedule.Duration.MinMinutes, cfg.Schedule.Duration.MaxMinutes)
	}
	return nil
}

func platformDisplay(active string) string {
	if active == "" {
		return "none (offline)"
	}
	return active
}

package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the worker startup banner.
func PrintBanner(config *Config, logger arbor.ILogger) {
	version := GetVersion()
	build := GetBuild()

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(80)

	fmt.Printf("\n")
	b.PrintTopLine()
	b.PrintCenteredText("JOB FINDER WORKER")
	b.PrintCenteredText("Company, Source & Job Listing Pipeline")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", version, 15)
	b.PrintKeyValue("Build", build, 15)
	b.PrintKeyValue("Environment", config.Environment, 15)
	b.PrintKeyValue("Queue", config.Queue.QueueName, 15)
	b.PrintKeyValue("Concurrency", fmt.Sprintf("%d", config.Queue.Concurrency), 15)
	b.PrintBottomLine()
	fmt.Printf("\n")

	logger.Info().
		Str("version", version).
		Str("build", build).
		Str("environment", config.Environment).
		Str("queue_name", config.Queue.QueueName).
		Int("queue_concurrency", config.Queue.Concurrency).
		Msg("Worker started")

	printCapabilities(config, logger)
	fmt.Printf("\n")
}

// printCapabilities displays which optional subsystems are active.
func printCapabilities(config *Config, logger arbor.ILogger) {
	fmt.Printf("Enabled capabilities:\n")

	enabled := []string{}
	if config.Claude.APIKey != "" {
		fmt.Printf("   - Claude agent (%s)\n", config.Claude.Model)
		enabled = append(enabled, "claude")
	}
	if config.Gemini.APIKey != "" {
		fmt.Printf("   - Gemini agent + web search grounding (%s)\n", config.Gemini.Model)
		enabled = append(enabled, "gemini")
	}
	if config.Crawler.EnableJavaScript {
		fmt.Printf("   - JavaScript-rendered HTML fetch (chromedp)\n")
		enabled = append(enabled, "chromedp")
	}
	if config.Redis.Addr != "" {
		fmt.Printf("   - Redis-backed budget counters (%s)\n", config.Redis.Addr)
		enabled = append(enabled, "redis")
	}
	if config.Metrics.Enabled {
		fmt.Printf("   - Prometheus metrics\n")
		enabled = append(enabled, "metrics")
	}
	if len(enabled) == 0 {
		fmt.Printf("   - (no optional capabilities configured)\n")
	}

	logger.Info().
		Strs("enabled_capabilities", enabled).
		Str("storage", "badger").
		Str("queue_backend", "goqite_sqlite").
		Msg("Worker capabilities")
}

// PrintShutdownBanner displays the shutdown banner.
func PrintShutdownBanner(logger arbor.ILogger) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(42)

	b.PrintTopLine()
	b.PrintCenteredText("SHUTTING DOWN")
	b.PrintCenteredText("JOB FINDER WORKER")
	b.PrintBottomLine()
	fmt.Println()

	logger.Info().Msg("Worker shutting down")
}

// PrintColorizedMessage prints a message with the given color to stdout; logger is not used.
func PrintColorizedMessage(color, message string, logger arbor.ILogger) {
	fmt.Printf("%s%s%s\n", color, message, banner.ColorReset)
}

// PrintSuccess prints a success message in green and logs it.
func PrintSuccess(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorGreen, fmt.Sprintf("[ok] %s", message), logger)
	logger.Info().Str("type", "success").Msg(message)
}

// PrintError prints an error message in red and logs it.
func PrintError(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorRed, fmt.Sprintf("[error] %s", message), logger)
	logger.Error().Str("type", "error").Msg(message)
}

// PrintWarning prints a warning message in yellow and logs it.
func PrintWarning(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorYellow, fmt.Sprintf("[warn] %s", message), logger)
	logger.Warn().Str("type", "warning").Msg(message)
}

// PrintInfo prints an info message in cyan and logs it.
func PrintInfo(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorCyan, fmt.Sprintf("[info] %s", message), logger)
	logger.Info().Str("type", "info").Msg(message)
}

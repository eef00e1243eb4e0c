package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/krakendca/config"
	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/scheduler"
)

// DefaultConfigFile file the wizard writes.
const DefaultConfigFile = "config.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// answers raw wizard input.
type answers struct {
	platform       string
	pair           string
	amount         string
	resultKey      string
	triggerTimes   string
	timezone       string
	pollInterval   string
	webAddr        string
	telegramToken  string
	telegramChatID string
}

func defaultAnswers() answers {
	return answers{
		platform:     config.PlatformSimulate,
		pair:         config.DefaultPair,
		amount:       config.DefaultAmount,
		triggerTimes: strings.Join(config.DefaultTriggerTimes, ","),
		timezone:     config.DefaultTimezone,
		pollInterval: config.DefaultPollPriceInterval.String(),
	}
}

// RunTUI launches the terminal configuration wizard and returns the path of the written config.
func RunTUI() (string, error) {
	a := defaultAnswers()
	var confirm bool

	// step 1: platform
	screen("STEP 1: PLATFORM")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Buy a fixed amount of crypto on a schedule.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should orders go?").
				Options(
					huh.NewOption("Kraken (real orders, needs KRAKEN_API_KEY / KRAKEN_API_SECRET)", config.PlatformKraken),
					huh.NewOption("Simulation (real prices, paper wallet)", config.PlatformSimulate),
				).
				Value(&a.platform),
		),
	).Run()
	if err != nil {
		return "", err
	}

	// step 2: asset and budget
	screen("STEP 2: ASSET")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trading Pair").
				Description("BASE_QUOTE (e.g. XBT_USD)").
				Value(&a.pair).
				Validate(validatePair),
			huh.NewInput().
				Title("Amount per trade").
				Description("Quote currency spent on every trade (e.g. 100)").
				Value(&a.amount).
				Validate(validateAmount),
			huh.NewInput().
				Title("Ticker result key").
				Description("Leave empty unless the exchange answers under another name (e.g. XXBTZUSD)").
				Value(&a.resultKey),
		),
	).Run()
	if err != nil {
		return "", err
	}

	// step 3: schedule
	screen("STEP 3: SCHEDULE")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trade times").
				Description("Comma separated HH:MM (e.g. 00:00,12:00)").
				Value(&a.triggerTimes).
				Validate(validateTriggerTimes),
			huh.NewInput().
				Title("Time zone").
				Description("IANA name (e.g. America/New_York)").
				Value(&a.timezone).
				Validate(validateTimezone),
			huh.NewInput().
				Title("Poll Price Interval").
				Description("Duration below one minute (e.g. 1s, 10s)").
				Value(&a.pollInterval).
				Validate(validatePollInterval),
		),
	).Run()
	if err != nil {
		return "", err
	}

	// step 4: optional outputs
	screen("STEP 4: NOTIFICATIONS")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Status server address").
				Description("Optional (e.g. :8080)").
				Value(&a.webAddr),
			huh.NewInput().
				Title("Telegram bot token").
				Description("Optional").
				Value(&a.telegramToken).
				EchoMode(huh.EchoModePassword),
			huh.NewInput().
				Title("Telegram chat id").
				Description("Optional").
				Value(&a.telegramChatID).
				Validate(validateChatID),
		),
	).Run()
	if err != nil {
		return "", err
	}

	// confirmation
	screen("FINAL CONFIRMATION")
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(a.summary()))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return "", err
	}
	if !confirm {
		return "", fmt.Errorf("setup cancelled by user")
	}

	if err := writeConfig(DefaultConfigFile, a); err != nil {
		return "", err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting bot...", DefaultConfigFile)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return DefaultConfigFile, nil
}

func screen(step string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("KRAKEN DCA CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(step))
}

func (a answers) summary() string {
	return fmt.Sprintf(
		"Platform: %s\nPair: %s\nAmount: %s\nTrade times: %s (%s)\nInterval: %s\n",
		a.platform, strings.ToUpper(a.pair), a.amount, a.triggerTimes, a.timezone, a.pollInterval,
	)
}

func (a answers) toConfigTmp() (config.ConfigTmp, error) {
	pollInterval, err := time.ParseDuration(a.pollInterval)
	if err != nil {
		return config.ConfigTmp{}, fmt.Errorf("invalid poll interval: %w", err)
	}

	var chatID int64
	if a.telegramChatID != "" {
		chatID, err = strconv.ParseInt(a.telegramChatID, 10, 64)
		if err != nil {
			return config.ConfigTmp{}, fmt.Errorf("invalid telegram chat id: %w", err)
		}
	}

	return config.ConfigTmp{
		Platform:          a.platform,
		Pair:              strings.ToUpper(a.pair),
		Amount:            a.amount,
		ResultKey:         a.resultKey,
		TriggerTimes:      splitList(a.triggerTimes),
		Timezone:          a.timezone,
		PollPriceInterval: pollInterval,
		WebAddr:           a.webAddr,
		TelegramToken:     a.telegramToken,
		TelegramChatID:    chatID,
	}, nil
}

func writeConfig(path string, a answers) error {
	cfgTmp, err := a.toConfigTmp()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

func validatePair(s string) error {
	if s == "" {
		return fmt.Errorf("pair cannot be empty")
	}
	_, err := domain.ParsePair(s)
	return err
}

func validateAmount(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}

func validateTriggerTimes(s string) error {
	times := splitList(s)
	if len(times) == 0 {
		return fmt.Errorf("at least one trade time is required")
	}
	_, err := scheduler.ParseTimesOfDay(times)
	return err
}

func validateTimezone(s string) error {
	_, err := time.LoadLocation(s)
	return err
}

func validatePollInterval(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d <= 0 || d >= time.Minute {
		return fmt.Errorf("must be between 0 and 1m")
	}
	return nil
}

func validateChatID(s string) error {
	if s == "" {
		return nil
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config параметры клиента. Собирается один раз при старте и дальше не меняется.
type Config struct {
	Address     string `yaml:"address"`
	Port        int    `yaml:"port"`
	CameraIndex int    `yaml:"camera_index"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	LabelPath   string `yaml:"label_path"`
	MaxColors   int    `yaml:"max_colors"`
	Verbose     bool   `yaml:"verbose"`
	Headless    bool   `yaml:"headless"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	MaxMessageBytes int           `yaml:"max_message_bytes"`

	RecordDir   string `yaml:"record_dir"`
	MonitorAddr string `yaml:"monitor_addr"`

	TelegramToken  string        `yaml:"-"`
	TelegramChatID int64         `yaml:"telegram_chat_id"`
	NotifyLabels   []string      `yaml:"notify_labels"`
	NotifyInterval time.Duration `yaml:"notify_interval"`
}

// Default значения по умолчанию
func Default() Config {
	return Config{
		Port:            4444,
		CameraIndex:     0,
		Width:           640,
		Height:          480,
		MaxColors:       1000,
		ReadTimeout:     time.Second,
		MaxMessageBytes: 16 << 20,
		NotifyInterval:  30 * time.Second,
	}
}

// Load собирает конфигурацию: значения по умолчанию, YAML-файл (-config),
// переменные окружения и .env, затем флаги командной строки.
func Load(args []string) (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := Default()

	if path := configPath(args); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.parseFlags(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Target адрес сервера в виде host:port
func (c *Config) Target() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// Validate проверяет значения
func (c *Config) Validate() error {
	var errs []error
	if c.Address == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera size must be positive: %dx%d", c.Width, c.Height))
	}
	if c.MaxColors <= 0 {
		errs = append(errs, fmt.Errorf("colors must be positive: %d", c.MaxColors))
	}
	if c.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("read timeout must be positive: %s", c.ReadTimeout))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max message size must be positive: %d", c.MaxMessageBytes))
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		errs = append(errs, errors.New("telegram chat id is required when TELEGRAM_TOKEN is set"))
	}
	return errors.Join(errs...)
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	c.Address = getEnv("NN_CLIENT_ADDRESS", c.Address)
	c.LabelPath = getEnv("NN_CLIENT_LABELS", c.LabelPath)
	c.RecordDir = getEnv("NN_CLIENT_RECORD_DIR", c.RecordDir)
	c.MonitorAddr = getEnv("NN_CLIENT_MONITOR_ADDR", c.MonitorAddr)
	c.TelegramToken = getEnv("TELEGRAM_TOKEN", c.TelegramToken)

	if v := os.Getenv("NN_CLIENT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NN_CLIENT_PORT: %w", err)
		}
		c.Port = port
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	return nil
}

func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("nn-client", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: nn-client [flags] ADDRESS")
		fs.PrintDefaults()
	}

	fs.String("config", "", "Path to YAML config file")
	fs.IntVar(&c.Port, "p", c.Port, "Port number")
	fs.IntVar(&c.Port, "port", c.Port, "Port number")
	fs.IntVar(&c.CameraIndex, "i", c.CameraIndex, "Camera device ID")
	fs.IntVar(&c.CameraIndex, "index", c.CameraIndex, "Camera device ID")
	fs.IntVar(&c.Width, "W", c.Width, "Camera width")
	fs.IntVar(&c.Width, "width", c.Width, "Camera width")
	fs.IntVar(&c.Height, "H", c.Height, "Camera height")
	fs.IntVar(&c.Height, "height", c.Height, "Camera height")
	fs.StringVar(&c.LabelPath, "l", c.LabelPath, "Path to label list file")
	fs.StringVar(&c.LabelPath, "label", c.LabelPath, "Path to label list file")
	fs.IntVar(&c.MaxColors, "c", c.MaxColors, "Max label colors")
	fs.IntVar(&c.MaxColors, "colors", c.MaxColors, "Max label colors")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "Enable verbose mode")
	fs.BoolVar(&c.Verbose, "verbose", c.Verbose, "Enable verbose mode")
	fs.BoolVar(&c.Headless, "headless", c.Headless, "Run without a result window")
	fs.DurationVar(&c.ReadTimeout, "read-timeout", c.ReadTimeout, "Socket read timeout before retry")
	fs.IntVar(&c.MaxMessageBytes, "max-message-bytes", c.MaxMessageBytes, "Limit for one buffered JSON message")
	fs.StringVar(&c.RecordDir, "record", c.RecordDir, "Directory for session recordings")
	fs.StringVar(&c.MonitorAddr, "monitor", c.MonitorAddr, "Listen address of the result monitor")
	fs.Int64Var(&c.TelegramChatID, "telegram-chat", c.TelegramChatID, "Telegram chat for detection alerts")
	fs.DurationVar(&c.NotifyInterval, "notify-interval", c.NotifyInterval, "Minimum interval between alerts")
	notify := fs.String("notify", strings.Join(c.NotifyLabels, ","), "Comma separated labels that trigger alerts")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}
	c.NotifyLabels = splitList(*notify)

	if rest := fs.Args(); len(rest) > 0 {
		c.Address = rest[0]
		if len(rest) > 1 {
			return fmt.Errorf("unexpected arguments: %v", rest[1:])
		}
	}
	return nil
}

// configPath ищет -config до разбора остальных флагов, файл читается первым
func configPath(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// reorderArgs переносит позиционный адрес в конец, чтобы флаги после него тоже разбирались
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positional = append(positional, arg)
			continue
		}
		flags = append(flags, arg)
		if !strings.Contains(arg, "=") && takesValue(arg) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	return append(flags, positional...)
}

func takesValue(arg string) bool {
	switch strings.TrimLeft(arg, "-") {
	case "v", "verbose", "headless":
		return false
	}
	return true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

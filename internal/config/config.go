package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesYAML []byte

// DefaultLocale is used when UI_LOCALE is unset or unknown.
const DefaultLocale = "en"

type Config struct {
	Backend  BackendConfig
	Camera   CameraConfig
	Web      WebConfig
	MQTT     MQTTConfig
	Locale   string
	Messages Messages
}

type BackendConfig struct {
	URL     string        // defaults to http://127.0.0.1:5000
	Timeout time.Duration // zero means requests never time out
}

type CameraConfig struct {
	Source       string // pattern, still:<path>, snapshot:<url>
	FPS          int
	CanvasWidth  int
	CanvasHeight int
}

type WebConfig struct {
	Host           string
	Port           int
	TLSCert        string
	TLSKey         string
	AllowedOrigins []string // CORS whitelist, localhost is always allowed
}

// TLSEnabled reports whether both certificate and key are configured.
func (c *WebConfig) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

type MQTTConfig struct {
	Broker   string // empty disables publishing
	Topic    string
	ClientID string
}

// Enabled reports whether a broker is configured.
func (c *MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

// Messages is the catalogue of user-visible strings for one locale.
// Entries ending in "Format" are fmt templates.
type Messages struct {
	RegistrationMissingFields string `yaml:"registration_missing_fields"`
	ErrorFormat               string `yaml:"error_format"`
	ConnectionError           string `yaml:"connection_error"`
	MalformedResponse         string `yaml:"malformed_response"`
	CameraUnavailable         string `yaml:"camera_unavailable"`
	EncodeFailed              string `yaml:"encode_failed"`
	RecognitionRowFormat      string `yaml:"recognition_row_format"`
	PersonRowFormat           string `yaml:"person_row_format"`
	PeopleEmpty               string `yaml:"people_empty"`
	PeopleError               string `yaml:"people_error"`
	LogRowFormat              string `yaml:"log_row_format"`
	LogRecognized             string `yaml:"log_recognized"`
	LogUnknown                string `yaml:"log_unknown"`
	LogEmpty                  string `yaml:"log_empty"`
	LogError                  string `yaml:"log_error"`
}

// Errorf renders a server-provided error message with the locale's error prefix.
func (m Messages) Errorf(message string) string {
	return fmt.Sprintf(m.ErrorFormat, message)
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration accepts Go durations ("30s") or a plain number of seconds.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// LoadMessages returns the embedded catalogue for locale, falling back to DefaultLocale.
func LoadMessages(locale string) (Messages, error) {
	var catalogue map[string]Messages
	if err := yaml.Unmarshal(messagesYAML, &catalogue); err != nil {
		return Messages{}, fmt.Errorf("unmarshal messages catalogue: %w", err)
	}
	if msgs, ok := catalogue[strings.ToLower(locale)]; ok {
		return msgs, nil
	}
	msgs, ok := catalogue[DefaultLocale]
	if !ok {
		return Messages{}, fmt.Errorf("messages catalogue has no %q locale", DefaultLocale)
	}
	return msgs, nil
}

func Load() *Config {
	locale := envString("UI_LOCALE", DefaultLocale)
	msgs, err := LoadMessages(locale)
	if err != nil {
		// Embedded file, so this only happens when the catalogue itself is broken.
		panic("failed to load embedded messages.yaml: " + err.Error())
	}

	return &Config{
		Backend: BackendConfig{
			URL:     strings.TrimRight(envString("BACKEND_URL", "http://127.0.0.1:5000"), "/"),
			Timeout: envDuration("BACKEND_TIMEOUT", 0),
		},
		Camera: CameraConfig{
			Source:       envString("CAMERA_SOURCE", "pattern"),
			FPS:          envInt("CAMERA_FPS", 10),
			CanvasWidth:  envInt("CANVAS_WIDTH", 640),
			CanvasHeight: envInt("CANVAS_HEIGHT", 480),
		},
		Web: WebConfig{
			Host:    envString("WEB_HOST", "0.0.0.0"),
			Port:    envInt("WEB_PORT", 8443),
			TLSCert: os.Getenv("WEB_TLS_CERT"),
			TLSKey:  os.Getenv("WEB_TLS_KEY"),

			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		MQTT: MQTTConfig{
			Broker:   os.Getenv("MQTT_BROKER"),
			Topic:    envString("MQTT_TOPIC", "face-kiosk/recognitions"),
			ClientID: os.Getenv("MQTT_CLIENT_ID"),
		},
		Locale:   locale,
		Messages: msgs,
	}
}

package config

import (
	"encoding/xml"
	"io"
	"os"
	"sync"
)

var (
	cfg  *APIConfig
	once sync.Once
)

// APIConfig represents the root element.
type APIConfig struct {
	XMLName        xml.Name             `xml:"API"`
	RequestDump    bool                 `xml:"REQUEST_DUMP,attr"`
	Context        ContextConfig        `xml:"CONTEXT"`
	Authentication AuthenticationConfig `xml:"AUTHENTICATION"`
	Upload         UploadConfig         `xml:"UPLOAD"`
	Generation     GenerationConfig     `xml:"GENERATION"`
	DB             DBConfig             `xml:"DB"`
	THIRD_PARTY    ThirdPartyConfig     `xml:"THIRD_PARTY"`
}

// ContextConfig holds basic server settings.
type ContextConfig struct {
	Port     int    `xml:"PORT"`
	Host     string `xml:"HOST"`
	Path     string `xml:"PATH"`
	TimeZone string `xml:"TIME_ZONE"`
	LogDir   string `xml:"LOG_DIR"`
	Mode     string `xml:"MODE"`
}

// ThirdPartyConfig holds settings for the generative-AI provider. The API
// key itself comes from the environment, never from this file.
type ThirdPartyConfig struct {
	GeminiModel   string `xml:"GEMINI_MODEL"`
	GeminiTimeout int    `xml:"GEMINI_TIMEOUT_SECONDS"`
}

// AuthenticationConfig holds authentication settings.
type AuthenticationConfig struct {
	MultipleSameUserSessions bool `xml:"MULTIPLE_SAME_USER_SESSIONS,attr"`
	EnableTokenAuth          bool `xml:"ENABLE_TOKEN_AUTH"`
	SessionTimeout           int  `xml:"SESSION_TIMEOUT"`
}

// UploadConfig holds PDF upload limits.
type UploadConfig struct {
	MaxSizeMB int `xml:"MAX_SIZE_MB"`
}

// GenerationConfig holds quiz-generation limits.
type GenerationConfig struct {
	MaxQuestions      int     `xml:"MAX_QUESTIONS"`
	RequestsPerMinute float64 `xml:"REQUESTS_PER_MINUTE"`
	Burst             int     `xml:"BURST"`
}

// DBConfig holds database connection settings.
type DBConfig struct {
	Initialize bool         `xml:"INITIALIZE"`
	Server     string       `xml:"SERVER"`
	Host       string       `xml:"HOST"`
	Port       int          `xml:"PORT"`
	Driver     string       `xml:"DRIVER"`
	SSLMode    string       `xml:"SSL_MODE"`
	Names      DBNames      `xml:"NAMES"`
	Username   string       `xml:"USERNAME"`
	Password   DBPassword   `xml:"PASSWORD"`
	Pool       DBPoolConfig `xml:"POOL"`
}

// DBNames holds the names defined in the DB section.
type DBNames struct {
	CLARITA string `xml:"CLARITA,attr"`
}

// DBPassword holds password details.
type DBPassword struct {
	Type  string `xml:"TYPE,attr"`
	Value string `xml:",chardata"`
}

// DBPoolConfig holds database connection pooling settings.
type DBPoolConfig struct {
	MaxOpenConns    int `xml:"MAX_OPEN_CONNS"`
	MaxIdleConns    int `xml:"MAX_IDLE_CONNS"`
	ConnMaxLifetime int `xml:"CONN_MAX_LIFETIME"`
}

// MaxUploadBytes returns the configured upload cap in bytes, defaulting
// to 20MB.
func (c *APIConfig) MaxUploadBytes() int64 {
	mb := c.Upload.MaxSizeMB
	if mb <= 0 {
		mb = 20
	}
	return int64(mb) << 20
}

// MaxQuizQuestions returns the per-quiz question cap, defaulting to 50.
func (c *APIConfig) MaxQuizQuestions() int {
	if c.Generation.MaxQuestions <= 0 {
		return 50
	}
	return c.Generation.MaxQuestions
}

// LoadConfig loads and parses the XML configuration from the given file.
func LoadConfig(xmlPath string) (*APIConfig, error) {
	var loadErr error
	once.Do(func() {
		f, err := os.Open(xmlPath)
		if err != nil {
			loadErr = err
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			loadErr = err
			return
		}

		var newCfg APIConfig
		if err := xml.Unmarshal(data, &newCfg); err != nil {
			loadErr = err
			return
		}

		cfg = &newCfg
	})

	if cfg == nil {
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, os.ErrInvalid
	}
	return cfg, nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *APIConfig {
	return cfg
}

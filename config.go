package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/9seconds/promptrelay/llm"
	"github.com/9seconds/promptrelay/providers"
	"github.com/9seconds/promptrelay/relaylib"
	"github.com/BurntSushi/toml"
	"github.com/hjson/hjson-go/v4"
)

const (
	DefaultListen            = "127.0.0.1:5000"
	DefaultHTTPTimeout       = 10 * time.Second
	DefaultLLMHTTPTimeout    = 2 * time.Minute
	DefaultRateLimitInterval = 100 * time.Millisecond
	DefaultRateLimitBurst    = 10
)

var (
	knownGeoProviders = map[string]bool{
		providers.NameIPAPI:        true,
		providers.NameIPAPICom:     true,
		providers.NameIPInfo:       true,
		providers.NameKeyCDN:       true,
		providers.NameMaxmindLocal: true,
	}

	llmAPIKeyEnvs = map[string]string{
		llm.NameOpenAI: "OPENAI_API_KEY",
		llm.NameGemini: "GEMINI_API_KEY",
	}
)

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalJSON(b []byte) error {
	var v interface{}

	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("cannot unmarshal duration: %w", err)
	}

	vv, ok := v.(string)
	if !ok {
		return fmt.Errorf("incorrect duration: %v", v)
	}

	return d.UnmarshalText([]byte(vv))
}

func (d *duration) UnmarshalText(b []byte) error {
	dur, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("cannot parse duration: %w", err)
	}

	d.Duration = dur

	return nil
}

type config struct {
	Listen           string              `json:"listen" toml:"listen"`
	AccessToken      string              `json:"access_token" toml:"access_token"`
	WorkerPoolSize   uint                `json:"worker_pool_size" toml:"worker_pool_size"`
	UsageLogCapacity uint                `json:"usage_log_capacity" toml:"usage_log_capacity"`
	Timezone         string              `json:"timezone" toml:"timezone"`
	GeoLookupTimeout duration            `json:"geo_lookup_timeout" toml:"geo_lookup_timeout"`
	PrivateNetworks  []string            `json:"private_networks" toml:"private_networks"`
	LogFile          string              `json:"log_file" toml:"log_file"`
	GeoProviders     []configGeoProvider `json:"geo_providers" toml:"geo_providers"`
	LLM              configLLM           `json:"llm" toml:"llm"`
}

func (c config) GetListen() string {
	if c.Listen != "" {
		return c.Listen
	}

	return DefaultListen
}

// GetAccessToken returns a token for bearer authentication. Empty
// token means that authentication is disabled.
func (c config) GetAccessToken() string {
	if c.AccessToken != "" {
		return c.AccessToken
	}

	return os.Getenv("ACCESS_TOKEN")
}

func (c config) GetWorkerPoolSize() int {
	return int(c.WorkerPoolSize)
}

func (c config) GetUsageLogCapacity() int {
	return int(c.UsageLogCapacity)
}

func (c config) GetTimezone() string {
	if c.Timezone != "" {
		return c.Timezone
	}

	return relaylib.DefaultTimezone
}

func (c config) GetGeoLookupTimeout() time.Duration {
	if c.GeoLookupTimeout.Duration == 0 {
		return relaylib.DefaultGeoLookupTimeout
	}

	return c.GeoLookupTimeout.Duration
}

func (c config) GetPrivateNetworks() []string {
	return c.PrivateNetworks
}

func (c config) GetLogFile() string {
	return c.LogFile
}

// GetGeoProviders returns a chain of providers. ipapi.co and
// ip-api.com are used if nothing is configured.
func (c config) GetGeoProviders() []configGeoProvider {
	if len(c.GeoProviders) != 0 {
		return c.GeoProviders
	}

	return []configGeoProvider{
		{Name: providers.NameIPAPI},
		{Name: providers.NameIPAPICom},
	}
}

func (c config) GetLLM() configLLM {
	return c.LLM
}

type configGeoProvider struct {
	Name               string            `json:"name" toml:"name"`
	HTTPTimeout        duration          `json:"http_timeout" toml:"http_timeout"`
	RateLimitInterval  duration          `json:"rate_limit_interval" toml:"rate_limit_interval"`
	RateLimitBurst     uint              `json:"rate_limit_burst" toml:"rate_limit_burst"`
	SpecificParameters map[string]string `json:"specific_parameters" toml:"specific_parameters"`
}

func (c configGeoProvider) GetName() string {
	return c.Name
}

func (c configGeoProvider) GetHTTPTimeout() time.Duration {
	if c.HTTPTimeout.Duration == 0 {
		return DefaultHTTPTimeout
	}

	return c.HTTPTimeout.Duration
}

func (c configGeoProvider) GetRateLimitInterval() time.Duration {
	if c.RateLimitInterval.Duration == 0 {
		return DefaultRateLimitInterval
	}

	return c.RateLimitInterval.Duration
}

func (c configGeoProvider) GetRateLimitBurst() int {
	if c.RateLimitBurst == 0 {
		return DefaultRateLimitBurst
	}

	return int(c.RateLimitBurst)
}

func (c configGeoProvider) GetSpecificParameters() map[string]string {
	if c.SpecificParameters == nil {
		return map[string]string{}
	}

	return c.SpecificParameters
}

type configLLM struct {
	Provider          string   `json:"provider" toml:"provider"`
	BaseURL           string   `json:"base_url" toml:"base_url"`
	APIKey            string   `json:"api_key" toml:"api_key"`
	Model             string   `json:"model" toml:"model"`
	HTTPTimeout       duration `json:"http_timeout" toml:"http_timeout"`
	RateLimitInterval duration `json:"rate_limit_interval" toml:"rate_limit_interval"`
	RateLimitBurst    uint     `json:"rate_limit_burst" toml:"rate_limit_burst"`
}

func (c configLLM) GetProvider() string {
	if c.Provider != "" {
		return c.Provider
	}

	return llm.NameOpenAI
}

func (c configLLM) GetBaseURL() string {
	return c.BaseURL
}

// GetAPIKey returns a key from the config or, if it is absent, from
// the environment variable of the provider.
func (c configLLM) GetAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}

	return os.Getenv(llmAPIKeyEnvs[c.GetProvider()])
}

func (c configLLM) GetModel() string {
	return c.Model
}

func (c configLLM) GetHTTPTimeout() time.Duration {
	if c.HTTPTimeout.Duration == 0 {
		return DefaultLLMHTTPTimeout
	}

	return c.HTTPTimeout.Duration
}

func (c configLLM) GetRateLimitInterval() time.Duration {
	if c.RateLimitInterval.Duration == 0 {
		return DefaultRateLimitInterval
	}

	return c.RateLimitInterval.Duration
}

func (c configLLM) GetRateLimitBurst() int {
	if c.RateLimitBurst == 0 {
		return DefaultRateLimitBurst
	}

	return int(c.RateLimitBurst)
}

func parseConfig(path string) (*config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}

	conf := config{}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(content), &conf); err != nil {
			return nil, fmt.Errorf("cannot parse toml: %w", err)
		}
	} else {
		rawMap := map[string]interface{}{}

		if err := hjson.Unmarshal(content, &rawMap); err != nil {
			return nil, fmt.Errorf("cannot parse json: %w", err)
		}

		rawBytes, _ := json.Marshal(rawMap)

		if err := json.Unmarshal(rawBytes, &conf); err != nil {
			return nil, fmt.Errorf("incorrect config structure: %w", err)
		}
	}

	if err := validateConfig(&conf); err != nil {
		return nil, err
	}

	return &conf, nil
}

func validateConfig(conf *config) error {
	if _, _, err := net.SplitHostPort(conf.GetListen()); err != nil {
		return fmt.Errorf("incorrect host:port for listen: %w", err)
	}

	if _, err := time.LoadLocation(conf.GetTimezone()); err != nil {
		return fmt.Errorf("incorrect timezone: %w", err)
	}

	seenProviderNames := map[string]struct{}{}

	for _, v := range conf.GetGeoProviders() {
		if !knownGeoProviders[v.GetName()] {
			return fmt.Errorf("unknown geo provider %s", v.GetName())
		}

		if _, ok := seenProviderNames[v.GetName()]; ok {
			return fmt.Errorf("name %s is duplicated", v.GetName())
		}

		seenProviderNames[v.GetName()] = struct{}{}
	}

	if _, ok := llmAPIKeyEnvs[conf.GetLLM().GetProvider()]; !ok {
		return fmt.Errorf("unknown llm provider %s", conf.GetLLM().GetProvider())
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"maker/internal/common"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultFusionURL   = "https://api.1inch.dev/fusion-plus"
	defaultFeeBps      = 100
	defaultAPIPort     = 8080
	defaultWSPort      = 8081
	defaultLogLevel    = "info"
	defaultHTTPTimeout = 30 * time.Second
)

type Config struct {
	FusionURL string `mapstructure:"fusion_url"`
	AuthKey   string `mapstructure:"auth_key"`

	PrivateKey    string `mapstructure:"private_key"`
	WalletAddress string `mapstructure:"wallet_address"`
	RPCURL        string `mapstructure:"rpc_url"`
	SuiRPCURL     string `mapstructure:"sui_rpc_url"`

	TakingFeeBps      int    `mapstructure:"taking_fee_bps"`
	TakingFeeReceiver string `mapstructure:"taking_fee_receiver"`

	APIPort      int  `mapstructure:"api_port"`
	WSPort       int  `mapstructure:"ws_port"`
	RelayerProxy bool `mapstructure:"relayer_proxy"`

	LogLevel    string        `mapstructure:"log_level"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// Fee is the configured default taking fee.
func (c Config) Fee() common.TakingFee {
	return common.TakingFee{Bps: c.TakingFeeBps, Receiver: c.TakingFeeReceiver}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fusion_url", defaultFusionURL)
	v.SetDefault("auth_key", "")
	v.SetDefault("private_key", "")
	v.SetDefault("wallet_address", "")
	v.SetDefault("rpc_url", "")
	v.SetDefault("sui_rpc_url", "")
	v.SetDefault("taking_fee_bps", defaultFeeBps)
	v.SetDefault("taking_fee_receiver", common.ZeroAddress)
	v.SetDefault("api_port", defaultAPIPort)
	v.SetDefault("ws_port", defaultWSPort)
	v.SetDefault("relayer_proxy", false)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("http_timeout", defaultHTTPTimeout)
}

// Load reads envFiles (default .env, when present) into the environment and
// resolves the configuration from it.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate reports every missing identity setting at once.
func (c Config) Validate() error {
	required := []struct{ key, value string }{
		{"PRIVATE_KEY", c.PrivateKey},
		{"WALLET_ADDRESS", c.WalletAddress},
		{"RPC_URL", c.RPCURL},
		{"AUTH_KEY", c.AuthKey},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", common.ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

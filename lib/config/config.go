package config

import (
	"os"
	"path/filepath"

	"github.com/go-i2p/embedded-router/lib/util"
	"github.com/go-i2p/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	CfgFile string
	log     = logger.GetGoI2PLogger()
)

const ROUTER_BASE_DIR = ".embedded-router"

func InitConfig() {
	if CfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(CfgFile)
	} else {
		// Set up viper to use the default config path $HOME/.embedded-router/
		viper.AddConfigPath(BuildRouterDirPath())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Load defaults
	setDefaults()

	// handle config file creating it if needed
	handleConfigFile()
}

func setDefaults() {
	// Router defaults
	viper.SetDefault("base_dir", defaultBase())
	viper.SetDefault("working_dir", defaultConfig())
	viper.SetDefault("insecure_tunnels", true)

	// SAM bridge defaults
	viper.SetDefault("sam.enabled", true)
	viper.SetDefault("sam.host", DefaultSAMConfig.Host)
	viper.SetDefault("sam.tcp_port", int(DefaultSAMConfig.TCPPort))
	viper.SetDefault("sam.udp_port", int(DefaultSAMConfig.UDPPort))

	// Transit defaults
	viper.SetDefault("transit.enabled", false)
	viper.SetDefault("transit.max_tunnels", DefaultTransitConfig.MaxTunnels)
}

// NewRouterConfigFromViper creates a new RouterConfig from current viper settings.
// This is the preferred way to get config instead of mutating shared state.
func NewRouterConfigFromViper() *RouterConfig {
	var sam *SAMConfig
	if viper.GetBool("sam.enabled") {
		sam = &SAMConfig{
			Host:    viper.GetString("sam.host"),
			TCPPort: uint16(viper.GetInt("sam.tcp_port")),
			UDPPort: uint16(viper.GetInt("sam.udp_port")),
		}
	}

	var transit *TransitConfig
	if viper.GetBool("transit.enabled") {
		transit = &TransitConfig{
			MaxTunnels: viper.GetInt("transit.max_tunnels"),
		}
	}

	return &RouterConfig{
		BaseDir:         viper.GetString("base_dir"),
		WorkingDir:      viper.GetString("working_dir"),
		SAM:             sam,
		Transit:         transit,
		InsecureTunnels: viper.GetBool("insecure_tunnels"),
	}
}

func createDefaultConfig(defaultConfigDir string) {
	defaultConfigFile := filepath.Join(defaultConfigDir, "config.yaml")
	// Ensure directory exists
	if err := os.MkdirAll(defaultConfigDir, 0o755); err != nil {
		log.Fatalf("Could not create config directory: %s", err)
	}

	// Serialize the default settings so the generated file documents every key
	defaults := map[string]interface{}{
		"base_dir":         defaultBase(),
		"working_dir":      defaultConfig(),
		"insecure_tunnels": true,
		"sam": map[string]interface{}{
			"enabled":  true,
			"host":     DefaultSAMConfig.Host,
			"tcp_port": int(DefaultSAMConfig.TCPPort),
			"udp_port": int(DefaultSAMConfig.UDPPort),
		},
		"transit": map[string]interface{}{
			"enabled":     false,
			"max_tunnels": DefaultTransitConfig.MaxTunnels,
		},
	}

	data, err := yaml.Marshal(defaults)
	if err != nil {
		log.Fatalf("Could not serialize default config: %s", err)
	}
	if err := os.WriteFile(defaultConfigFile, data, 0o644); err != nil {
		log.Fatalf("Could not write default config file: %s", err)
	}

	log.Debugf("Created default configuration at: %s", defaultConfigFile)
}

func handleConfigFile() {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if CfgFile != "" {
				log.Fatalf("Config file %s is not found: %s", CfgFile, err)
			} else {
				createDefaultConfig(BuildRouterDirPath())
			}
		} else {
			log.Fatalf("Error reading config file: %s", err)
		}
	} else {
		log.Debugf("Using config file: %s", viper.ConfigFileUsed())
	}
}

func BuildRouterDirPath() string {
	return filepath.Join(util.UserHome(), ROUTER_BASE_DIR)
}

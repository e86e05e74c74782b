package config

import (
	"os"
	"strings"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/log"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Env     string
	Network string
	Index   string `validate:"required"`
	Debug   bool
	LogPath string

	Marketplace   MarketplaceConfig
	Ledger        LedgerConfig
	ElasticSearch ElasticSearchConfig
	Aws           AwsConfig
	Messenger     MessengerConfig
	Api           ApiConfig
}

type MarketplaceConfig struct {
	ChainId  int64  `validate:"gt=0"`
	Deployer string `validate:"required,eth_addr"`

	FeeResolverAddress     string `validate:"required,eth_addr"`
	MarketplaceAddress     string `validate:"required,eth_addr"`
	OrderMatchAddress      string `validate:"required,eth_addr"`
	BlindBoxFactoryAddress string `validate:"required,eth_addr"`
	NftFactoryAddress      string `validate:"required,eth_addr"`
	PriceFeedAddress       string `validate:"required,eth_addr"`

	FeeAddress    string `validate:"omitempty,eth_addr"`
	PaymentToken  string `validate:"omitempty,eth_addr"`
	TokenDecimals int    `validate:"gte=0,lte=36"`
	ExpiredTimes  uint64

	FeeMarketplace uint64 `validate:"lte=10000"`
	FeeOwner       uint64 `validate:"lte=10000"`
	FeeMerchant    uint64 `validate:"lte=10000"`
	FeeCollector   uint64 `validate:"lte=10000"`

	PriceFeed            bool
	PriceFeedDecimals    int `validate:"gte=0,lte=36"`
	PriceFeedDescription string
}

type LedgerConfig struct {
	Driver  string `validate:"oneof=memory rpc"`
	Url     string `validate:"required_if=Driver rpc"`
	Timeout int
	Debug   bool
}

type AwsConfig struct {
	AccessKey string
	SecretKey string
	Region    string
}

type ElasticSearchConfig struct {
	Enabled          bool
	Hosts            []string
	Sniff            bool
	HealthCheck      bool
	Debug            bool
	Username         string
	Password         string
	Aws              bool
	MappingDir       string
	BulkPersistCount int
	Refresh          string
}

type MessengerConfig struct {
	Driver   string `validate:"oneof=none sqs amqp"`
	AmqpUri  string `validate:"required_if=Driver amqp"`
	Exchange string
	QueueUrl string `validate:"required_if=Driver sqs"`
}

type ApiConfig struct {
	Port string `validate:"required"`
}

func Init() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		zap.L().With(zap.Error(err)).Fatal("Unable to init config")
	}

	initLogger()
}

func initLogger() {
	cfg := Get()
	log.NewLogger(cfg.LogPath, cfg.Debug)
}

var env = newEnv()

func newEnv() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

func Get() *Config {
	return &Config{
		Env:     getString("ENV", ""),
		Network: getString("NETWORK", "bsc"),
		Index:   getString("INDEX_NAME", "tokomarket"),
		Debug:   getBool("DEBUG", false),
		LogPath: getString("LOG_PATH", ""),
		Marketplace: MarketplaceConfig{
			ChainId:                getInt64("CHAIN_ID", 1337),
			Deployer:               getString("DEPLOYER_ADDRESS", "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"),
			FeeResolverAddress:     getString("FEE_RESOLVER_ADDRESS", "0x0000000000000000000000000000000000000f01"),
			MarketplaceAddress:     getString("MARKETPLACE_ADDRESS", "0x0000000000000000000000000000000000000f02"),
			OrderMatchAddress:      getString("ORDER_MATCH_ADDRESS", "0x0000000000000000000000000000000000000f03"),
			BlindBoxFactoryAddress: getString("BLIND_BOX_FACTORY_ADDRESS", "0x0000000000000000000000000000000000000f04"),
			NftFactoryAddress:      getString("NFT_FACTORY_ADDRESS", "0x0000000000000000000000000000000000000f05"),
			PriceFeedAddress:       getString("PRICE_FEED_ADDRESS", "0x0000000000000000000000000000000000000f06"),
			FeeAddress:             getString("FEE_ADDRESS", ""),
			PaymentToken:           getString("PAYMENT_TOKEN", ""),
			TokenDecimals:          getInt("TOKEN_DECIMALS", 18),
			ExpiredTimes:           getUint64("EXPIRED_TIMES", 5),
			FeeMarketplace:         getUint64("FEE_MARKETPLACE", 250),
			FeeOwner:               getUint64("FEE_OWNER", 500),
			FeeMerchant:            getUint64("FEE_MERCHANT", 300),
			FeeCollector:           getUint64("FEE_COLLECTOR", 200),
			PriceFeed:              getBool("PRICE_FEED", false),
			PriceFeedDecimals:      getInt("PRICE_FEED_DECIMALS", 8),
			PriceFeedDescription:   getString("PRICE_FEED_DESCRIPTION", "TKO / IDR"),
		},
		Ledger: LedgerConfig{
			Driver:  getString("LEDGER_DRIVER", "memory"),
			Url:     getString("LEDGER_URL", ""),
			Timeout: getInt("LEDGER_TIMEOUT", 30),
			Debug:   getBool("LEDGER_DEBUG", false),
		},
		Aws: AwsConfig{
			AccessKey: getString("AWS_ACCESS_KEY_ID", ""),
			SecretKey: getString("AWS_SECRET_KEY_ID", ""),
			Region:    getString("AWS_REGION", ""),
		},
		ElasticSearch: ElasticSearchConfig{
			Enabled:          getBool("ELASTIC_SEARCH_ENABLED", false),
			Hosts:            getSlice("ELASTIC_SEARCH_HOSTS", make([]string, 0), ","),
			Sniff:            getBool("ELASTIC_SEARCH_SNIFF", true),
			HealthCheck:      getBool("ELASTIC_SEARCH_HEALTH_CHECK", true),
			Debug:            getBool("ELASTIC_SEARCH_DEBUG", false),
			Username:         getString("ELASTIC_SEARCH_USERNAME", ""),
			Password:         getString("ELASTIC_SEARCH_PASSWORD", ""),
			Aws:              getBool("ELASTIC_SEARCH_AWS", false),
			MappingDir:       getString("ELASTIC_SEARCH_MAPPING_DIR", "/data/mappings"),
			BulkPersistCount: getInt("ELASTIC_SEARCH_BULK_PERSIST_COUNT", 300),
			Refresh:          getString("ELASTIC_SEARCH_REFRESH", "wait_for"),
		},
		Messenger: MessengerConfig{
			Driver:   getString("MESSENGER_DRIVER", "none"),
			AmqpUri:  getString("AMQP_URI", ""),
			Exchange: getString("AMQP_EXCHANGE", "marketplace"),
			QueueUrl: getString("SQS_QUEUE_URL", ""),
		},
		Api: ApiConfig{
			Port: getString("API_PORT", "8080"),
		},
	}
}

// Validate checks addresses, fee bounds and driver settings.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

func getString(key string, defaultValue string) string {
	if env.IsSet(key) {
		return env.GetString(key)
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if env.IsSet(key) {
		return env.GetInt(key)
	}

	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	if env.IsSet(key) {
		return env.GetInt64(key)
	}

	return defaultValue
}

func getUint64(key string, defaultValue uint64) uint64 {
	if env.IsSet(key) {
		return env.GetUint64(key)
	}

	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if env.IsSet(key) {
		return env.GetBool(key)
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}

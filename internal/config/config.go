package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pooldraw-network/pooldraw/internal/core/application"
	"github.com/pooldraw-network/pooldraw/internal/core/ports"
	"github.com/pooldraw-network/pooldraw/internal/infrastructure/clock"
	"github.com/pooldraw-network/pooldraw/internal/infrastructure/db"
	dispatcher "github.com/pooldraw-network/pooldraw/internal/infrastructure/dispatcher/loopback"
	prizepool "github.com/pooldraw-network/pooldraw/internal/infrastructure/prize-pool/inmemory"
	rngservice "github.com/pooldraw-network/pooldraw/internal/infrastructure/rng/inmemory"
	timescheduler "github.com/pooldraw-network/pooldraw/internal/infrastructure/scheduler/gocron"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	supportedDbs = supportedType{
		"badger": {},
	}
	supportedSchedulers = supportedType{
		"gocron": {},
	}
	supportedRngs = supportedType{
		"inmemory": {},
	}
	supportedFinalizers = supportedType{
		"distribute": {},
		"relay":      {},
	}
)

type Config struct {
	Datadir  string
	Port     uint32
	LogLevel int

	DbType        string
	DbDir         string
	SchedulerType string
	RngType       string
	FinalizerType string

	GenesisTimestamp    int64
	SequencePeriod      int64
	RngAuctionDuration  int64
	DrawAuctionDuration int64

	OwnerAddress      string
	DrawCloserAddress string

	InitialReserve  uint64
	RngFulfillDelay int64

	DestinationChainId    uint64
	RemoteOwnerAddress    string
	RemoteListenerAddress string

	AutoPilot          bool
	AutoPilotInterval  int64
	AutoPilotRecipient string

	repo          ports.RepoManager
	svc           application.Service
	clock         ports.Clock
	rng           ports.RngService
	pool          ports.PrizePoolService
	msgDispatcher ports.MessageDispatcher
	finalizer     ports.DrawFinalizer
	scheduler     ports.SchedulerService
}

func (c *Config) String() string {
	json, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	Datadir               = "DATADIR"
	Port                  = "PORT"
	LogLevel              = "LOG_LEVEL"
	DbType                = "DB_TYPE"
	SchedulerType         = "SCHEDULER_TYPE"
	RngType               = "RNG_TYPE"
	FinalizerType         = "FINALIZER_TYPE"
	GenesisTimestamp      = "GENESIS_TIMESTAMP"
	SequencePeriod        = "SEQUENCE_PERIOD"
	RngAuctionDuration    = "RNG_AUCTION_DURATION"
	DrawAuctionDuration   = "DRAW_AUCTION_DURATION"
	OwnerAddress          = "OWNER_ADDRESS"
	DrawCloserAddress     = "DRAW_CLOSER_ADDRESS"
	InitialReserve        = "INITIAL_RESERVE"
	RngFulfillDelay       = "RNG_FULFILL_DELAY"
	DestinationChainId    = "DESTINATION_CHAIN_ID"
	RemoteOwnerAddress    = "REMOTE_OWNER_ADDRESS"
	RemoteListenerAddress = "REMOTE_LISTENER_ADDRESS"
	AutoPilot             = "AUTO_PILOT"
	AutoPilotInterval     = "AUTO_PILOT_INTERVAL"
	AutoPilotRecipient    = "AUTO_PILOT_RECIPIENT"

	defaultDatadir             = appDataDir("pooldrawd")
	DefaultPort                = 7080
	defaultLogLevel            = 4
	defaultDbType              = "badger"
	defaultSchedulerType       = "gocron"
	defaultRngType             = "inmemory"
	defaultFinalizerType       = "distribute"
	defaultGenesisTimestamp    = 1704067200 // 2024-01-01T00:00:00Z
	defaultSequencePeriod      = 86400
	defaultRngAuctionDuration  = 3600
	defaultDrawAuctionDuration = 1800
	defaultRngFulfillDelay     = 30
	defaultAutoPilotInterval   = 30
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("POOLDRAW")
	viper.AutomaticEnv()

	viper.SetDefault(Datadir, defaultDatadir)
	viper.SetDefault(Port, DefaultPort)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(DbType, defaultDbType)
	viper.SetDefault(SchedulerType, defaultSchedulerType)
	viper.SetDefault(RngType, defaultRngType)
	viper.SetDefault(FinalizerType, defaultFinalizerType)
	viper.SetDefault(GenesisTimestamp, defaultGenesisTimestamp)
	viper.SetDefault(SequencePeriod, defaultSequencePeriod)
	viper.SetDefault(RngAuctionDuration, defaultRngAuctionDuration)
	viper.SetDefault(DrawAuctionDuration, defaultDrawAuctionDuration)
	viper.SetDefault(RngFulfillDelay, defaultRngFulfillDelay)
	viper.SetDefault(AutoPilotInterval, defaultAutoPilotInterval)

	if err := initDatadir(); err != nil {
		return nil, fmt.Errorf("error while creating datadir: %s", err)
	}

	return &Config{
		Datadir:               viper.GetString(Datadir),
		Port:                  viper.GetUint32(Port),
		LogLevel:              viper.GetInt(LogLevel),
		DbType:                viper.GetString(DbType),
		DbDir:                 filepath.Join(viper.GetString(Datadir), "db"),
		SchedulerType:         viper.GetString(SchedulerType),
		RngType:               viper.GetString(RngType),
		FinalizerType:         viper.GetString(FinalizerType),
		GenesisTimestamp:      viper.GetInt64(GenesisTimestamp),
		SequencePeriod:        viper.GetInt64(SequencePeriod),
		RngAuctionDuration:    viper.GetInt64(RngAuctionDuration),
		DrawAuctionDuration:   viper.GetInt64(DrawAuctionDuration),
		OwnerAddress:          viper.GetString(OwnerAddress),
		DrawCloserAddress:     viper.GetString(DrawCloserAddress),
		InitialReserve:        viper.GetUint64(InitialReserve),
		RngFulfillDelay:       viper.GetInt64(RngFulfillDelay),
		DestinationChainId:    viper.GetUint64(DestinationChainId),
		RemoteOwnerAddress:    viper.GetString(RemoteOwnerAddress),
		RemoteListenerAddress: viper.GetString(RemoteListenerAddress),
		AutoPilot:             viper.GetBool(AutoPilot),
		AutoPilotInterval:     viper.GetInt64(AutoPilotInterval),
		AutoPilotRecipient:    viper.GetString(AutoPilotRecipient),
	}, nil
}

func initDatadir() error {
	datadir := viper.GetString(Datadir)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func appDataDir(appName string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(home, "."+appName)
}

func (c *Config) Validate() error {
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedSchedulers.supports(c.SchedulerType) {
		return fmt.Errorf("scheduler type not supported, please select one of: %s", supportedSchedulers)
	}
	if !supportedRngs.supports(c.RngType) {
		return fmt.Errorf("rng type not supported, please select one of: %s", supportedRngs)
	}
	if !supportedFinalizers.supports(c.FinalizerType) {
		return fmt.Errorf("finalizer type not supported, please select one of: %s", supportedFinalizers)
	}
	if c.GenesisTimestamp <= 0 {
		return fmt.Errorf("invalid genesis timestamp, must be greater than 0")
	}
	if c.SequencePeriod <= 0 {
		return fmt.Errorf("invalid sequence period, must be greater than 0")
	}
	if c.RngAuctionDuration <= 0 || c.RngAuctionDuration > c.SequencePeriod {
		return fmt.Errorf(
			"invalid rng auction duration, must be in (0, %d]", c.SequencePeriod,
		)
	}
	if c.DrawAuctionDuration <= 0 {
		return fmt.Errorf("invalid draw auction duration, must be greater than 0")
	}
	if !common.IsHexAddress(c.OwnerAddress) {
		return fmt.Errorf("invalid or missing owner address")
	}
	if len(c.DrawCloserAddress) > 0 && !common.IsHexAddress(c.DrawCloserAddress) {
		return fmt.Errorf("invalid draw closer address")
	}
	if c.FinalizerType == "relay" {
		if c.DestinationChainId == 0 {
			return fmt.Errorf("destination chain id not set")
		}
		if !common.IsHexAddress(c.RemoteOwnerAddress) {
			return fmt.Errorf("invalid or missing remote owner address")
		}
		if !common.IsHexAddress(c.RemoteListenerAddress) {
			return fmt.Errorf("invalid or missing remote listener address")
		}
	}
	if c.AutoPilot {
		if !common.IsHexAddress(c.AutoPilotRecipient) {
			return fmt.Errorf("invalid or missing auto-pilot recipient address")
		}
		if c.AutoPilotInterval <= 0 {
			return fmt.Errorf("invalid auto-pilot interval, must be greater than 0")
		}
	}

	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.clockService(); err != nil {
		return err
	}
	if err := c.rngService(); err != nil {
		return err
	}
	if err := c.finalizerService(); err != nil {
		return err
	}
	if err := c.schedulerService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) PrizePoolService() ports.PrizePoolService {
	return c.pool
}

func (c *Config) repoManager() error {
	var storeConfig []interface{}
	logger := log.New()

	switch c.DbType {
	case "badger":
		storeConfig = []interface{}{c.DbDir, logger}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		EventStoreType:     c.DbType,
		AuctionStoreType:   c.DbType,
		EventStoreConfig:   storeConfig,
		AuctionStoreConfig: storeConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) clockService() error {
	c.clock = clock.NewSystemClock()
	return nil
}

func (c *Config) rngService() error {
	var svc ports.RngService
	var err error
	switch c.RngType {
	case "inmemory":
		svc, err = rngservice.NewService(c.clock, c.RngFulfillDelay)
	default:
		err = fmt.Errorf("unknown rng type")
	}
	if err != nil {
		return err
	}

	c.rng = svc
	return nil
}

func (c *Config) finalizerService() error {
	switch c.FinalizerType {
	case "distribute":
		c.pool = prizepool.NewService(c.InitialReserve)
		c.finalizer = application.NewRewardDistributor(c.pool, c.clock)
	case "relay":
		c.msgDispatcher = dispatcher.NewService()
		relayer, err := application.NewCrossChainRelayer(
			c.msgDispatcher, c.clock, c.DestinationChainId,
			common.HexToAddress(c.RemoteOwnerAddress),
			common.HexToAddress(c.RemoteListenerAddress),
		)
		if err != nil {
			return err
		}
		c.finalizer = relayer
	default:
		return fmt.Errorf("unknown finalizer type")
	}
	return nil
}

func (c *Config) schedulerService() error {
	var svc ports.SchedulerService
	var err error
	switch c.SchedulerType {
	case "gocron":
		svc = timescheduler.NewScheduler()
	default:
		err = fmt.Errorf("unknown scheduler type")
	}
	if err != nil {
		return err
	}

	c.scheduler = svc
	return nil
}

func (c *Config) appService() error {
	var drawCloser common.Address
	if len(c.DrawCloserAddress) > 0 {
		drawCloser = common.HexToAddress(c.DrawCloserAddress)
	}

	autoPilot := application.AutoPilot{
		Enabled:         c.AutoPilot,
		IntervalSeconds: c.AutoPilotInterval,
	}
	if c.AutoPilot {
		autoPilot.Recipient = common.HexToAddress(c.AutoPilotRecipient)
	}

	svc, err := application.NewService(
		c.GenesisTimestamp, c.SequencePeriod, c.RngAuctionDuration, c.DrawAuctionDuration,
		common.HexToAddress(c.OwnerAddress), drawCloser,
		c.rng, c.repo, c.finalizer, c.clock, c.scheduler, autoPilot,
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}

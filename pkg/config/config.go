package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MustLoad loads the configuration from environment variables and .env file.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load() // Load environment variables from .env file

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load() // .env file is optional

	if err := env.Parse(cfg); err != nil {
		return err
	}

	return nil
}

// OBMConfig holds the configuration for the order book matching engine process.
type OBMConfig struct {
	Instrument string `env:"INSTRUMENT" envDefault:"RELIANCE"`

	KafkaConfig      `envPrefix:"KAFKA_"`
	RedisConfig      `envPrefix:"REDIS_"`
	WALConfig        `envPrefix:"WAL_"`
	CheckpointConfig `envPrefix:"CHECKPOINT_"`
	EngineConfig     `envPrefix:"ENGINE_"`
}

// WriterConfig holds the configuration for the persistence worker process.
type WriterConfig struct {
	KafkaConfig    `envPrefix:"KAFKA_"`
	PostgresConfig `envPrefix:"POSTGRES_"`

	// ConsumerName identifies this worker's stream position row.
	ConsumerName string `env:"CONSUMER_NAME" envDefault:"order-writer"`
	BatchSize    int    `env:"BATCH_SIZE" envDefault:"100"`
}

// KafkaConfig holds the configuration for Kafka consumers and producers.
type KafkaConfig struct {
	Brokers []string `env:"BROKER" envDefault:"localhost:9092"`

	RequestTopic string `env:"REQUEST_TOPIC" envDefault:"orders.requests"`
	ReplyTopic   string `env:"REPLY_TOPIC" envDefault:"orders.replies"`
	RecordTopic  string `env:"RECORD_TOPIC" envDefault:"wal.records"`
	GroupID      string `env:"GROUP_ID" envDefault:"obm"`
}

// RedisConfig holds the configuration for the Redis broadcast client.
type RedisConfig struct {
	Addrs    []string `env:"ADDRS" envDefault:"localhost:6379"`
	Username string   `env:"USERNAME" envDefault:""`
	Password string   `env:"PASSWORD" envDefault:""`
	DB       int      `env:"DB" envDefault:"0"`

	TradeChannel    string `env:"TRADE_CHANNEL" envDefault:"trade_events"`
	SnapshotChannel string `env:"SNAPSHOT_CHANNEL" envDefault:"snapshot_events"`
}

// WALConfig holds the configuration for the write-ahead log.
type WALConfig struct {
	Dir         string `env:"DIR" envDefault:"data/wal"`
	SegmentSize int64  `env:"SEGMENT_SIZE" envDefault:"67108864"`
}

// CheckpointConfig holds the configuration for the checkpoint store.
type CheckpointConfig struct {
	Dir         string `env:"DIR" envDefault:"data/checkpoint"`
	RecordDelta uint64 `env:"RECORD_DELTA" envDefault:"10000"`
}

// EngineConfig holds tunables for the matching engine loop.
type EngineConfig struct {
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"1s"`
	SnapshotDepth    int           `env:"SNAPSHOT_DEPTH" envDefault:"50"`
	RecentRequests   int           `env:"RECENT_REQUESTS" envDefault:"65536"`
}

// PostgresConfig holds the connection settings for the mirror database.
type PostgresConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	Database string `env:"DATABASE" envDefault:"orderapi"`
	Username string `env:"USERNAME" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:""`
	SSLMode  string `env:"SSL_MODE" envDefault:"prefer"`

	MaxConns        int32         `env:"MAX_CONNS" envDefault:"10"`
	MinConns        int32         `env:"MIN_CONNS" envDefault:"2"`
	MaxConnLifetime time.Duration `env:"MAX_CONN_LIFETIME" envDefault:"2h"`
	MaxConnIdleTime time.Duration `env:"MAX_CONN_IDLE_TIME" envDefault:"15m"`
	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`

	ApplicationName string `env:"APPLICATION_NAME" envDefault:"order-writer"`
	MigrationsDir   string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
}

package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env-default:"8080"`
	Redis      Redis  `yaml:"redis"`
	Kafka      Kafka  `yaml:"kafka"`
	Game       Game   `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

type Kafka struct {
	Brokers   []string `yaml:"brokers" env-default:""`
	GameTopic string   `yaml:"game-topic" env-default:"baseball.games"`
	UserTopic string   `yaml:"user-topic" env-default:"baseball.users"`
}

// Game holds the grace periods and pacing delays of a match.
type Game struct {
	PlayerEvictionGrace time.Duration `yaml:"player-eviction-grace" env-default:"20m"`
	RoomDeletionGrace   time.Duration `yaml:"room-deletion-grace" env-default:"5s"`
	MatchEndDelay       time.Duration `yaml:"match-end-delay" env-default:"2s"`
	NextRoundDelay      time.Duration `yaml:"next-round-delay" env-default:"3s"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// Enabled reports whether event streaming is configured at all.
func (that *Kafka) Enabled() bool {
	return len(that.Brokers) > 0
}

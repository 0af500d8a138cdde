package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	DataDir  string `env:"DATA_DIR" envDefault:"data"`

	InviteSecret  string `env:"INVITE_SECRET,required,notEmpty"`
	InviteTTLMins int    `env:"INVITE_TTL_MINUTES" envDefault:"60"`

	SeatGraceSeconds int `env:"SEAT_GRACE_SECONDS" envDefault:"120"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}

package core

import (
	"time"

	"github.com/fox-one/pkg/store/db"
)

// Config lendhub config
type Config struct {
	App      App       `json:"app"`
	DB       db.Config `json:"db"`
	Oracle   Oracle    `json:"oracle"`
	Auth     Auth      `json:"auth"`
	Sentinel Sentinel  `json:"sentinel"`
	Admins   []string  `json:"admins"`
}

// App app config
type App struct {
	Port int `json:"port" valid:"required"`
}

// Oracle external price feed config
type Oracle struct {
	Endpoint string        `json:"endpoint" valid:"url,required"`
	Interval time.Duration `json:"interval"`
	MaxAge   time.Duration `json:"max_age"`
}

// Auth delegated call verification config. With a callback endpoint set,
// programmatic principals are verified through it; otherwise every call
// needs a registered ed25519 key.
type Auth struct {
	CallbackEndpoint string `json:"callback_endpoint"`
}

// Sentinel health scan config
type Sentinel struct {
	Interval time.Duration `json:"interval"`
}

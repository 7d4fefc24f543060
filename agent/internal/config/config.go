package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "TALK2CAM"

type AppConfig struct {
	AppName        string
	AppVersion     string
	AppKey         string
	AppDescription string

	ListenHost string
	ListenPort int

	CompanionHost    string
	CompanionPort    int
	Presence         string
	ProInstalled     bool
	ServiceInstalled bool
	DBusBus          string
	DBusProName      string
	DBusServiceName  string

	LogPath  string
	LogLevel string

	DBDriver string
	DBDSN    string

	PhotoDir string

	RedisAddr     string
	EventsChannel string
}

var (
	mu  sync.RWMutex
	cfg AppConfig
	v   *viper.Viper
)

func defaults(v *viper.Viper) {
	dataDir := filepath.Join(os.TempDir(), "talk2cam")

	v.SetDefault("app.name", "Talk2Cam")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.key", "614bfd49-5f54-4c43-8df0-4ec1ef94cea1")
	v.SetDefault("app.description", "This app is a helper app for Tony, use all the code you want freely!")
	v.SetDefault("listen.host", "0.0.0.0")
	v.SetDefault("listen.port", 9113)
	v.SetDefault("companion.host", "127.0.0.1")
	v.SetDefault("companion.port", 9112)
	v.SetDefault("companion.presence", "static")
	v.SetDefault("companion.pro_installed", true)
	v.SetDefault("companion.service_installed", false)
	v.SetDefault("companion.dbus.bus", "session")
	v.SetDefault("companion.dbus.pro_name", "com.talk2watch.pro")
	v.SetDefault("companion.dbus.service_name", "com.talk2watch.service")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", filepath.Join(dataDir, "talk2cam.db"))
	v.SetDefault("camera.photo_dir", filepath.Join(dataDir, "photos"))
	v.SetDefault("events.channel", "talk2cam.events")
}

// Init reads path (YAML), .env and TALK2CAM_* environment variables.
// A missing config file is not an error; defaults apply.
func Init(path string) AppConfig {
	_ = godotenv.Load()

	v = viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	defaults(v)
	_ = v.ReadInConfig()

	c := load(v)
	mu.Lock()
	cfg = c
	mu.Unlock()
	return c
}

func load(v *viper.Viper) AppConfig {
	return AppConfig{
		AppName:          v.GetString("app.name"),
		AppVersion:       v.GetString("app.version"),
		AppKey:           v.GetString("app.key"),
		AppDescription:   v.GetString("app.description"),
		ListenHost:       v.GetString("listen.host"),
		ListenPort:       v.GetInt("listen.port"),
		CompanionHost:    v.GetString("companion.host"),
		CompanionPort:    v.GetInt("companion.port"),
		Presence:         v.GetString("companion.presence"),
		ProInstalled:     v.GetBool("companion.pro_installed"),
		ServiceInstalled: v.GetBool("companion.service_installed"),
		DBusBus:          v.GetString("companion.dbus.bus"),
		DBusProName:      v.GetString("companion.dbus.pro_name"),
		DBusServiceName:  v.GetString("companion.dbus.service_name"),
		LogPath:          v.GetString("log.path"),
		LogLevel:         v.GetString("log.level"),
		DBDriver:         v.GetString("db.driver"),
		DBDSN:            v.GetString("db.dsn"),
		PhotoDir:         v.GetString("camera.photo_dir"),
		RedisAddr:        v.GetString("events.redis_addr"),
		EventsChannel:    v.GetString("events.channel"),
	}
}

func Get() AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch calls fn with the reloaded config whenever the file changes.
// Only settings that are safe to change at runtime should be applied.
func Watch(fn func(fsnotify.Event, AppConfig)) {
	if v == nil {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		c := load(v)
		mu.Lock()
		cfg = c
		mu.Unlock()
		fn(e, c)
	})
	v.WatchConfig()
}

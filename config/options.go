package config

const (
	defaultLogFile           = "manga-shelf.log"
	defaultLogLevel          = "info"
	defaultLogFileMaxSize    = 20
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 28
	defaultLogCompress       = false
	defaultPort              = 8082
	defaultHost              = "0.0.0.0"
	defaultData              = "/var/opt/manga-shelf"
	defaultCORSOrigin        = "http://localhost:4200"
	defaultWorkerPoolSize    = 4
	defaultMaxUploadSize     = 512
	defaultPageCap           = 2000

	// MaxPageCap is the hard ceiling for page_cap. A malicious archive must
	// not be able to fill the disk no matter what the operator configured.
	MaxPageCap = 10000
)

// Why use mapstructure instead of json as field tags: viper unmarshals with
// mapstructure, json tags are not recognized.
type Options struct {
	// LogFile is the file to write logs to
	LogFile string `mapstructure:"log_file"`
	// LogLevel is the level of logging to show
	LogLevel string `mapstructure:"log_level"`
	// LogFileMaxSize is the maximum size of the log file before it is rotated
	LogFileMaxSize int `mapstructure:"log_file_max_size"`
	// LogFileMaxBackups is the maximum number of log files to keep
	LogFileMaxBackups int `mapstructure:"log_file_max_backups"`
	// LogFileMaxAge is the maximum number of days to keep a log file
	LogFileMaxAge int `mapstructure:"log_file_max_age"`
	// LogCompress is whether or not to compress the log files
	LogCompress bool `mapstructure:"log_compress"`
	// DSN is the path of the sqlite database
	DSN string `mapstructure:"dsn_uri"`
	// Port is the port to listen on
	Port int `mapstructure:"port"`
	// Host is the host to listen on
	Host string `mapstructure:"host"`
	// Data is the storage root; originals, pages, thumbnails and previews
	// live under it
	Data string `mapstructure:"data"`
	// WorkerPoolSize is the number of workers for the maintenance heal sweep
	WorkerPoolSize int `mapstructure:"worker_pool_size"`
	// MaxUploadSize is the maximum size of an upload, in MiB
	MaxUploadSize int64 `mapstructure:"max_upload_size"`
	// PageCap limits how many pages are extracted from a single archive
	PageCap int `mapstructure:"page_cap"`
	// JWTSecret verifies the bearer tokens issued by the identity service
	JWTSecret string `mapstructure:"jwt_secret"`
	// AdminToken, when set, lets automation bypass JWT auth via X-Admin-Token
	AdminToken string `mapstructure:"admin_token"`
	// CORSOrigin is the allowed credentialed origin
	CORSOrigin string `mapstructure:"cors_origin"`
}

func GetDefaultOptions() *Options {
	Opts = &Options{
		LogFile:           defaultLogFile,
		LogLevel:          defaultLogLevel,
		LogFileMaxSize:    defaultLogFileMaxSize,
		LogFileMaxBackups: defaultLogFileMaxBackups,
		LogFileMaxAge:     defaultLogFileMaxAge,
		LogCompress:       defaultLogCompress,
		Port:              defaultPort,
		Host:              defaultHost,
		Data:              defaultData,
		WorkerPoolSize:    defaultWorkerPoolSize,
		MaxUploadSize:     defaultMaxUploadSize,
		PageCap:           defaultPageCap,
		CORSOrigin:        defaultCORSOrigin,
	}
	return Opts
}

// EffectivePageCap clamps the configured page cap to the hard ceiling.
func (o *Options) EffectivePageCap() int {
	if o.PageCap <= 0 {
		return defaultPageCap
	}
	if o.PageCap > MaxPageCap {
		return MaxPageCap
	}
	return o.PageCap
}

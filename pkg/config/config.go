package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
	} `yaml:"app"`

	DataSources struct {
		Tushare struct {
			Token   string        `yaml:"token"`
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"tushare"`
		AKShare struct {
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"akshare"`
		ConceptCachePath string `yaml:"concept_cache_path"`
	} `yaml:"data_sources"`

	Database struct {
		Postgres struct {
			Host            string        `yaml:"host"`
			Port            int           `yaml:"port"`
			User            string        `yaml:"user"`
			Password        string        `yaml:"password"`
			DBName          string        `yaml:"dbname"`
			SSLMode         string        `yaml:"sslmode"`
			MaxOpenConns    int           `yaml:"max_open_conns"`
			MaxIdleConns    int           `yaml:"max_idle_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"database"`

	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`

	NATS struct {
		URL      string `yaml:"url"`
		ClientID string `yaml:"client_id"`
	} `yaml:"nats"`

	API struct {
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"api"`

	Scheduler struct {
		PipelineCron string `yaml:"pipeline_cron"`
		BacktestCron string `yaml:"backtest_cron"`
		HealthCron   string `yaml:"health_cron"`
	} `yaml:"scheduler"`

	Engine struct {
		TopConcepts       int `yaml:"top_concepts"`
		MainLineMin       int `yaml:"main_line_min"`
		MaxRecursionDepth int `yaml:"max_recursion_depth"`
	} `yaml:"engine"`

	Backtest struct {
		DuckDBPath string `yaml:"duckdb_path"`
		Workers    int    `yaml:"workers"`
		Limit      int    `yaml:"limit"`
	} `yaml:"backtest"`

	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`
}

// Default 默认配置
func Default() *Config {
	var c Config
	c.App.Name = "SentimentRadar"
	c.App.Env = "dev"

	c.DataSources.Tushare.BaseURL = "http://api.tushare.pro"
	c.DataSources.Tushare.Timeout = 30 * time.Second
	c.DataSources.AKShare.BaseURL = "http://127.0.0.1:8080"
	c.DataSources.AKShare.Timeout = 30 * time.Second
	c.DataSources.ConceptCachePath = "data/concepts.db"

	c.Database.Postgres.Host = "localhost"
	c.Database.Postgres.Port = 5432
	c.Database.Postgres.User = "postgres"
	c.Database.Postgres.DBName = "sentiment_radar"
	c.Database.Postgres.SSLMode = "disable"
	c.Database.Postgres.MaxOpenConns = 25
	c.Database.Postgres.MaxIdleConns = 5
	c.Database.Postgres.ConnMaxLifetime = 5 * time.Minute

	c.Redis.TTL = 12 * time.Hour
	c.NATS.ClientID = "sentiment-radar"

	c.API.Port = "8080"
	c.API.ReadTimeout = 15 * time.Second
	c.API.WriteTimeout = 30 * time.Second

	c.Scheduler.PipelineCron = "0 0 16 * * 1-5"
	c.Scheduler.BacktestCron = "0 30 16 * * 1-5"
	c.Scheduler.HealthCron = "@every 5m"

	c.Engine.TopConcepts = 10
	c.Engine.MainLineMin = 8
	c.Engine.MaxRecursionDepth = 30

	c.Backtest.DuckDBPath = ""
	c.Backtest.Workers = 4
	c.Backtest.Limit = 50

	c.Export.Dir = "exports"
	return &c
}

// LoadConfig 从文件加载配置，文件中未出现的字段保留默认值
func LoadConfig(path string) (*Config, error) {
	// .env 可选
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("加载.env失败: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	overrideFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate 检查必填项
func (c *Config) Validate() error {
	if c.API.Port == "" {
		return fmt.Errorf("配置缺少 api.port")
	}
	if c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "" {
		return fmt.Errorf("配置缺少数据库地址或库名")
	}
	if c.Engine.TopConcepts <= 0 || c.Engine.MainLineMin <= 0 {
		return fmt.Errorf("引擎参数必须为正数")
	}
	if c.Backtest.Workers <= 0 {
		return fmt.Errorf("回测并发数必须为正数")
	}
	return nil
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	setString := func(key string, dst *string) {
		if env := os.Getenv(key); env != "" {
			*dst = env
		}
	}
	setInt := func(key string, dst *int) {
		if env := os.Getenv(key); env != "" {
			if v, err := strconv.Atoi(env); err == nil && v > 0 {
				*dst = v
			}
		}
	}

	setString("APP_NAME", &config.App.Name)
	setString("APP_ENV", &config.App.Env)

	// 数据源
	setString("TUSHARE_TOKEN", &config.DataSources.Tushare.Token)
	setString("TUSHARE_BASE_URL", &config.DataSources.Tushare.BaseURL)
	setString("AKSHARE_BASE_URL", &config.DataSources.AKShare.BaseURL)
	setString("CONCEPT_CACHE_PATH", &config.DataSources.ConceptCachePath)

	// 数据库
	setString("DB_HOST", &config.Database.Postgres.Host)
	setInt("DB_PORT", &config.Database.Postgres.Port)
	setString("DB_USER", &config.Database.Postgres.User)
	setString("DB_PASSWORD", &config.Database.Postgres.Password)
	setString("DB_NAME", &config.Database.Postgres.DBName)
	setString("DB_SSLMODE", &config.Database.Postgres.SSLMode)

	setString("REDIS_ADDR", &config.Redis.Addr)
	setString("REDIS_PASSWORD", &config.Redis.Password)
	setString("NATS_URL", &config.NATS.URL)

	setString("API_PORT", &config.API.Port)
	setString("SCHEDULER_CRON", &config.Scheduler.PipelineCron)

	setString("DUCKDB_PATH", &config.Backtest.DuckDBPath)
	setInt("BACKTEST_WORKERS", &config.Backtest.Workers)
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev" // 默认开发环境
	}

	return fmt.Sprintf("configs/%s/app.yaml", env)
}

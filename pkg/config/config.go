package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/config_client"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ConfigMode 配置模式
type ConfigMode string

const (
	// ModeLocal 本地配置模式
	ModeLocal ConfigMode = "local"
	// ModeNacos Nacos配置中心模式
	ModeNacos ConfigMode = "nacos"
)

// NacosConfig Nacos配置
type NacosConfig struct {
	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr"`
	ServerPort uint64 `mapstructure:"server_port" yaml:"server_port"`
	Namespace  string `mapstructure:"namespace" yaml:"namespace"`
	Group      string `mapstructure:"group" yaml:"group"`
	DataID     string `mapstructure:"data_id" yaml:"data_id"`
	Username   string `mapstructure:"username" yaml:"username"`
	Password   string `mapstructure:"password" yaml:"password"`
	LogDir     string `mapstructure:"log_dir" yaml:"log_dir"`
	CacheDir   string `mapstructure:"cache_dir" yaml:"cache_dir"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
	TimeoutMs  uint64 `mapstructure:"timeout_ms" yaml:"timeout_ms"`
}

// Manager 配置管理器
type Manager struct {
	mode        ConfigMode
	nacosClient config_client.IConfigClient
	nacosConfig *NacosConfig
	viper       *viper.Viper
	logger      *zap.Logger

	mu        sync.Mutex
	listeners []func()
}

// NewManager 创建配置管理器
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		viper:  viper.New(),
		logger: logger,
	}
}

// SetDefault 设置默认值，在 LoadConfig 之前调用
func (m *Manager) SetDefault(key string, value interface{}) {
	m.viper.SetDefault(key, value)
}

// BindEnv binds a config key to one or more environment variables.
// Bound variables override both defaults and file values.
func (m *Manager) BindEnv(key string, envs ...string) error {
	return m.viper.BindEnv(append([]string{key}, envs...)...)
}

// LoadConfig 加载配置
// configPath: 本地配置文件路径（用于本地模式或Nacos连接配置）
// serviceName: 服务名称（用作Nacos DataID的前缀）
func (m *Manager) LoadConfig(configPath, serviceName string) error {
	// 从环境变量获取配置模式，默认为本地模式
	mode := os.Getenv("CONFIG_MODE")
	if mode == "" {
		mode = string(ModeLocal)
	}
	m.mode = ConfigMode(strings.ToLower(mode))

	switch m.mode {
	case ModeNacos:
		return m.loadFromNacos(configPath, serviceName)
	case ModeLocal:
		return m.loadFromLocal(configPath)
	default:
		return fmt.Errorf("unsupported config mode: %s", mode)
	}
}

// loadFromLocal 从本地文件加载配置。文件不存在时仅使用默认值和环境变量
func (m *Manager) loadFromLocal(configPath string) error {
	if configPath == "" {
		m.logger.Info("no config file given, using defaults and environment")
		return nil
	}

	m.viper.SetConfigFile(configPath)
	if err := m.viper.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("config file not found, using defaults and environment", zap.String("path", configPath))
			return nil
		}
		return fmt.Errorf("read local config failed: %w", err)
	}

	m.logger.Info("loaded config from local file", zap.String("path", configPath))
	return nil
}

// loadFromNacos 从Nacos配置中心加载配置
func (m *Manager) loadFromNacos(configPath, serviceName string) error {
	// 1. 先从本地文件读取Nacos连接配置
	localViper := viper.New()
	localViper.SetConfigFile(configPath)
	if err := localViper.ReadInConfig(); err != nil {
		return fmt.Errorf("read nacos connection config failed: %w", err)
	}

	// 2. 解析Nacos配置
	m.nacosConfig = &NacosConfig{}
	if err := localViper.UnmarshalKey("nacos", m.nacosConfig); err != nil {
		return fmt.Errorf("unmarshal nacos config failed: %w", err)
	}
	m.nacosConfig.applyEnv(serviceName)

	// 3. 创建Nacos客户端
	serverConfigs := []constant.ServerConfig{
		*constant.NewServerConfig(
			m.nacosConfig.ServerAddr,
			m.nacosConfig.ServerPort,
			constant.WithContextPath("/nacos"),
		),
	}

	clientConfig := *constant.NewClientConfig(
		constant.WithNamespaceId(m.nacosConfig.Namespace),
		constant.WithTimeoutMs(m.nacosConfig.TimeoutMs),
		constant.WithNotLoadCacheAtStart(true),
		constant.WithLogDir(m.nacosConfig.LogDir),
		constant.WithCacheDir(m.nacosConfig.CacheDir),
		constant.WithLogLevel(m.nacosConfig.LogLevel),
		constant.WithUsername(m.nacosConfig.Username),
		constant.WithPassword(m.nacosConfig.Password),
	)

	configClient, err := clients.NewConfigClient(
		vo.NacosClientParam{
			ClientConfig:  &clientConfig,
			ServerConfigs: serverConfigs,
		},
	)
	if err != nil {
		return fmt.Errorf("create nacos client failed: %w", err)
	}
	m.nacosClient = configClient

	// 4. 从Nacos获取配置
	content, err := configClient.GetConfig(vo.ConfigParam{
		DataId: m.nacosConfig.DataID,
		Group:  m.nacosConfig.Group,
	})
	if err != nil {
		return fmt.Errorf("get config from nacos failed: %w", err)
	}

	// 5. 将配置内容加载到viper
	m.viper.SetConfigType("yaml")
	if err := m.viper.ReadConfig(strings.NewReader(content)); err != nil {
		return fmt.Errorf("parse nacos config failed: %w", err)
	}

	m.logger.Info("loaded config from nacos",
		zap.String("group", m.nacosConfig.Group),
		zap.String("data_id", m.nacosConfig.DataID),
		zap.String("namespace", m.nacosConfig.Namespace))

	// 6. 监听配置变更
	if err := m.watchConfigChange(); err != nil {
		m.logger.Warn("watch config change failed", zap.Error(err))
	}

	return nil
}

// applyEnv 环境变量覆盖并设置默认值
func (n *NacosConfig) applyEnv(serviceName string) {
	if addr := os.Getenv("NACOS_SERVER_ADDR"); addr != "" {
		n.ServerAddr = addr
	}
	if ns := os.Getenv("NACOS_NAMESPACE"); ns != "" {
		n.Namespace = ns
	}
	if group := os.Getenv("NACOS_GROUP"); group != "" {
		n.Group = group
	}
	if dataID := os.Getenv("NACOS_DATA_ID"); dataID != "" {
		n.DataID = dataID
	} else if n.DataID == "" {
		// 默认使用服务名作为DataID
		n.DataID = serviceName + ".yaml"
	}
	if username := os.Getenv("NACOS_USERNAME"); username != "" {
		n.Username = username
	}
	if password := os.Getenv("NACOS_PASSWORD"); password != "" {
		n.Password = password
	}

	if n.ServerPort == 0 {
		n.ServerPort = 8848
	}
	if n.Group == "" {
		n.Group = "DEFAULT_GROUP"
	}
	if n.LogDir == "" {
		n.LogDir = "/tmp/nacos/log"
	}
	if n.CacheDir == "" {
		n.CacheDir = "/tmp/nacos/cache"
	}
	if n.LogLevel == "" {
		n.LogLevel = "info"
	}
	if n.TimeoutMs == 0 {
		n.TimeoutMs = 5000
	}
}

// watchConfigChange 监听配置变更
func (m *Manager) watchConfigChange() error {
	return m.nacosClient.ListenConfig(vo.ConfigParam{
		DataId: m.nacosConfig.DataID,
		Group:  m.nacosConfig.Group,
		OnChange: func(namespace, group, dataId, data string) {
			m.logger.Info("config changed", zap.String("group", group), zap.String("data_id", dataId))
			m.viper.SetConfigType("yaml")
			if err := m.viper.ReadConfig(strings.NewReader(data)); err != nil {
				m.logger.Error("reload config failed", zap.Error(err))
				return
			}
			m.notify()
		},
	})
}

// OnChange registers fn to run after a successful remote reload.
func (m *Manager) OnChange(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) notify() {
	m.mu.Lock()
	listeners := append([]func(){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Unmarshal 解析配置到结构体
func (m *Manager) Unmarshal(rawVal interface{}) error {
	return m.viper.Unmarshal(rawVal)
}

// GetMode 获取配置模式
func (m *Manager) GetMode() ConfigMode {
	return m.mode
}

// Close 关闭配置管理器
func (m *Manager) Close() error {
	if m.nacosClient != nil {
		if err := m.nacosClient.CancelListenConfig(vo.ConfigParam{
			DataId: m.nacosConfig.DataID,
			Group:  m.nacosConfig.Group,
		}); err != nil {
			return err
		}
		m.nacosClient.CloseClient()
	}
	return nil
}

package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"git.fiblab.net/sim/syncer/v3"
	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tsinghua-fib-lab/demandsim/task"
	"github.com/tsinghua-fib-lab/demandsim/utils/config"
	"gopkg.in/yaml.v2"
)

var (
	// 分布式模式syncer地址，如果设置为空则激活独立部署模式
	// 独立部署：不需要syncer，不向其他服务提供受保护的RPC访问
	syncerAddr string
	// 模拟任务名，主要用于服务注册
	job string
	// 本程序监听的gRPC地址
	grpcAddr string
	// 配置文件路径
	configPath string
	// 配置文件Base64编码后的数据
	configData string
	// 数据加载input的缓存地址，设置为空则禁用缓存功能
	// 缓存：将MongoDB数据根据数据库db和col序列化到本地文件系统，并总是先试图从文件系统中加载
	cacheDir string
	// 心跳日志间隔（时间片数）
	heartbeatInterval int32

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel string

	log = logrus.WithField("module", "demandsim")
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "demandsim",
		Short: "Agent-based weekly travel demand simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logrus.SetFormatter(&easy.Formatter{
				TimestampFormat: "2006-01-02 15:04:05.0000",
				LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
			})
			level, ok := logLevels[logLevel]
			if !ok {
				return fmt.Errorf("log.level must be one of %v", logLevels)
			}
			logrus.SetLevel(level)
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&configData, "config-data", "", "config file base64 encoded data")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache", "data/", "input cache dir path (empty means disable cache)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	rootCmd.AddCommand(newRunCmd(), newValidateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			sidecar := syncer.NewSidecar(task.SelfName, grpcAddr, syncerAddr)
			ctx, err := task.NewContext(job, cacheDir, c, sidecar, true)
			if err != nil {
				return err
			}
			ctx.HeartbeatInterval = heartbeatInterval
			return ctx.Run()
		},
	}
	cmd.Flags().StringVar(&syncerAddr, "syncer", "", "syncer address (empty means standalone mode), e.g. http://localhost:53001")
	cmd.Flags().StringVar(&job, "job", "job0", "the name of the whole simulation task")
	cmd.Flags().StringVar(&grpcAddr, "listen", ":51102", "gRPC listening address")
	cmd.Flags().Int32Var(&heartbeatInterval, "log.heartbeat_interval", 4, "心跳日志间隔步数")
	return cmd
}

// newValidateCmd 只检查配置与输入，不运行模拟也不写出结果
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config and input data without running",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			c.Output = config.Output{}
			ctx, err := task.NewContext(job, cacheDir, c, nil, false)
			if err != nil {
				return err
			}
			in := ctx.GetInput()
			log.Infof("config ok: %d zones, %d persons, %d shards, horizon %v - %v",
				len(in.Zones), in.NumPersons(), len(ctx.PersonManager().Shards()),
				ctx.Clock().Start, ctx.Clock().End,
			)
			return nil
		},
	}
}

// loadConfig 从文件或Base64数据读取配置，未知字段视为错误
func loadConfig() (config.Config, error) {
	var c config.Config
	var file []byte
	var err error
	switch {
	case configPath != "":
		if file, err = os.ReadFile(configPath); err != nil {
			return c, fmt.Errorf("config file load err: %w", err)
		}
	case configData != "":
		if file, err = base64.StdEncoding.DecodeString(configData); err != nil {
			return c, fmt.Errorf("config data load err: %w", err)
		}
	default:
		return c, errors.New("config file or config data must be specified")
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		return c, fmt.Errorf("config file load err: %w", err)
	}
	log.Debugf("%+v", c)
	return c, nil
}

// Package logger 全局日志
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log 全局日志实例，Init 之前为默认配置
var Log = logrus.New()

// New 按级别和格式创建日志，level 无法解析时使用 info
func New(level, format string, out io.Writer) *logrus.Logger {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.ToLower(format) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   out == os.Stdout,
		})
	}
	if out != nil {
		l.SetOutput(out)
	}
	return l
}

// Init 初始化全局日志，在 main 中调用一次
func Init(level, format string) *logrus.Logger {
	Log = New(level, format, os.Stdout)
	return Log
}

// InitFromEnv 从 LOG_LEVEL / LOG_FORMAT 初始化
func InitFromEnv() *logrus.Logger {
	level, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		level = "info"
	}
	return Init(level, os.Getenv("LOG_FORMAT"))
}

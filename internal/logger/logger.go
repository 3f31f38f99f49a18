package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Logger 是 zap.SugaredLogger 的轻量封装，统一键值对风格的日志输出。
type Logger struct {
	sugar *zap.SugaredLogger
}

// New 根据运行模式构建 Logger。release 模式输出 JSON，其余模式输出开发友好格式。
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "release", "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}

	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &Logger{sugar: zapLogger.Sugar()}, nil
}

// NewNop 返回一个不输出任何内容的 Logger，用于测试。
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// Sync 刷新缓冲的日志条目。
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

// With 返回附加固定字段的派生 Logger。
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.sugar.Fatalw(msg, keysAndValues...)
}

package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init sets up the process-wide logger. Log lines go to stdout and to a
// size-rotated file under logDir. Mode "prod" switches to JSON encoding.
func Init(logDir, mode string) {
	once.Do(func() {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			panic("failed to create log directory: " + err.Error())
		}

		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, "clarita.log"),
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}

		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

		var consoleEnc, fileEnc zapcore.Encoder
		if strings.EqualFold(mode, "prod") || strings.EqualFold(mode, "production") {
			consoleEnc = zapcore.NewJSONEncoder(encCfg)
			fileEnc = zapcore.NewJSONEncoder(encCfg)
		} else {
			devCfg := zap.NewDevelopmentEncoderConfig()
			devCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
			consoleEnc = zapcore.NewConsoleEncoder(devCfg)
			fileEnc = zapcore.NewConsoleEncoder(encCfg)
		}

		core := zapcore.NewTee(
			zapcore.NewCore(consoleEnc, zapcore.AddSync(os.Stdout), zap.DebugLevel),
			zapcore.NewCore(fileEnc, zapcore.AddSync(rotator), zap.DebugLevel),
		)
		sugar = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
	})
}

// get falls back to a plain development logger so packages can log in tests
// without calling Init first.
func get() *zap.SugaredLogger {
	if sugar == nil {
		l, _ := zap.NewDevelopment(zap.AddCallerSkip(1))
		sugar = l.Sugar()
	}
	return sugar
}

func Debug(format string, v ...interface{}) {
	get().Debugf(format, v...)
}

func Info(format string, v ...interface{}) {
	get().Infof(format, v...)
}

func Warn(format string, v ...interface{}) {
	get().Warnf(format, v...)
}

func Error(format string, v ...interface{}) {
	get().Errorf(format, v...)
}

func Fatal(format string, v ...interface{}) {
	get().Fatalf(format, v...)
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}

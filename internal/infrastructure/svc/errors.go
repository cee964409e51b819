package svc

import (
	"errors"

	"tickalert/internal/infrastructure/config"
	"tickalert/internal/infrastructure/websocket"
)

// ErrNoSymbols 错误：股票池为空，无法订阅
var ErrNoSymbols = errors.New("symbol universe is empty")

// ErrStorageInitFailed 错误：存储初始化失败
var ErrStorageInitFailed = errors.New("storage initialization failed")

// ErrMissingAPIKey 错误：未配置 Polygon API Key
var ErrMissingAPIKey = config.ErrMissingAPIKey

// ErrTransportFatal 错误：流连接丢失，进程应退出由外部重启
var ErrTransportFatal = websocket.ErrTransportFatal

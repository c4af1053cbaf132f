// Package domain holds the error taxonomy shared by the candles pipeline.
package domain

import "errors"

var (
	// ErrNetwork は全てのプロキシが失敗した、または通信自体に失敗した場合のエラーです。
	ErrNetwork = errors.New("market data unavailable")
	// ErrParse は到達できたプロキシが想定外のペイロードを返した場合のエラーです。
	ErrParse = errors.New("malformed market data payload")
	// ErrEmptyData は正規化後に有効なローソク足が1本も残らなかった場合のエラーです。
	ErrEmptyData = errors.New("no usable candles in window")
)

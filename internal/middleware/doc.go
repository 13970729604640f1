// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 目前包含結構化的請求日誌以及 panic 恢復，兩者都使用 slog 輸出。
package middleware

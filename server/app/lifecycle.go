package app

import "context"

// Component 任何「可啟動 / 可關閉」的長生命週期元件（目前只有 lab 的 HTTP server）。
//   - Run() 阻塞直到元件停止；由 Shutdown 觸發的正常停止應回傳 nil。
//   - Shutdown(ctx) 要求優雅關閉，實作需尊重 ctx 的期限。
//
// 不是 Component 的資源（campaign runtime、async logger）改用 App.OnStop 收尾。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

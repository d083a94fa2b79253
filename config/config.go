// Package config 站点配置信息
package config

// Initialize 触发加载本目录下的所有配置
// 各配置文件通过 init() 向 pkg/config 注册自己的配置段
func Initialize() {
}

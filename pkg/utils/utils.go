package utils

import (
	"os"
	"strings"
)

// StringUtils 字符串工具函数
type StringUtils struct{}

// IsEmpty 检查字符串是否为空
func (s *StringUtils) IsEmpty(str string) bool {
	return strings.TrimSpace(str) == ""
}

// IsNotEmpty 检查字符串是否非空
func (s *StringUtils) IsNotEmpty(str string) bool {
	return !s.IsEmpty(str)
}

// Truncate 截断字符串到指定长度
func (s *StringUtils) Truncate(str string, maxLen int) string {
	if len(str) <= maxLen {
		return str
	}
	return str[:maxLen] + "..."
}

// FileUtils 文件工具函数
type FileUtils struct{}

// EnsureDir 确保目录存在
func (f *FileUtils) EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists 检查文件是否存在
func (f *FileUtils) FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// 全局工具实例
var (
	String = &StringUtils{}
	File   = &FileUtils{}
)

// 便捷函数
func IsEmpty(str string) bool {
	return String.IsEmpty(str)
}

func IsNotEmpty(str string) bool {
	return String.IsNotEmpty(str)
}

func Truncate(str string, maxLen int) string {
	return String.Truncate(str, maxLen)
}

func EnsureDir(path string) error {
	return File.EnsureDir(path)
}

func FileExists(path string) bool {
	return File.FileExists(path)
}

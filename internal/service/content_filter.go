package service

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/importcjj/sensitive"
	"go.uber.org/zap"
)

// ContentFilter 评论内容过滤
type ContentFilter interface {
	Clean(content string) string
}

// TextFilter 屏蔽敏感词，其余字符原样保存，展示时再转义
type TextFilter struct {
	sensitive *sensitive.Filter
}

// NewTextFilter 创建内容过滤器，words 为初始敏感词
func NewTextFilter(words ...string) *TextFilter {
	f := &TextFilter{
		sensitive: sensitive.New(),
	}
	f.sensitive.AddWord(words...)
	return f
}

// LoadWordsFile 从文件加载Base64编码的敏感词，每行一个，path 为空时不加载
func (f *TextFilter) LoadWordsFile(path string, log *zap.SugaredLogger) (int, error) {
	if path == "" {
		return 0, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("打开敏感词文件失败: %w", err)
	}
	defer file.Close()
	return f.LoadWords(file, log)
}

// LoadWords 读取Base64编码的敏感词
func (f *TextFilter) LoadWords(r io.Reader, log *zap.SugaredLogger) (int, error) {
	loaded := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		decoded, err := base64.StdEncoding.DecodeString(line)
		if err != nil {
			log.Warnf("Base64解码敏感词失败: %v, 原文: %s", err, line)
			continue
		}
		word := strings.TrimSpace(string(decoded))
		if word == "" {
			continue
		}
		f.sensitive.AddWord(word)
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return loaded, fmt.Errorf("读取敏感词文件出错: %w", err)
	}
	return loaded, nil
}

// Clean 过滤评论内容
func (f *TextFilter) Clean(content string) string {
	return f.sensitive.Replace(content, '*')
}

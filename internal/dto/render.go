package dto

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// contentPolicy 评论展示只允许换行标签
var contentPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("br")
	return p
}()

// RenderContentHTML 将纯文本评论转为可直接嵌入页面的HTML
func RenderContentHTML(content string) string {
	escaped := html.EscapeString(content)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return contentPolicy.Sanitize(escaped)
}

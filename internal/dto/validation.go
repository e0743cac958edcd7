package dto

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// 错误信息模板
var validationMessages = map[string]string{
	"required": "不能为空",
	"min":      "不能小于%v",
	"max":      "长度不能大于%v",
}

// 字段名称映射
var fieldNames = map[string]string{
	"Content":    "内容",
	"GroupID":    "父评论ID",
	"CommentRef": "回复对象ID",
	"Page":       "页码",
	"Size":       "每页数量",
}

// BindErrorMessage 将请求绑定错误转换为提示信息，只返回第一个校验错误
func BindErrorMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "参数错误"
	}
	first := errs[0]

	fieldName := fieldNames[first.Field()]
	if fieldName == "" {
		fieldName = first.Field()
	}

	msgTemplate := validationMessages[first.Tag()]
	if msgTemplate == "" {
		return fieldName + "验证失败"
	}
	if first.Param() != "" {
		return fieldName + fmt.Sprintf(msgTemplate, first.Param())
	}
	return fieldName + msgTemplate
}

package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// 从模型输出中恢复结构化 JSON 的分层策略。
// 上游文本生成不保证遵守要求的输出形状，这里按结构假设从强到弱依次尝试：
//  1. 整段文本直接当 JSON 解析
//  2. 截取第一个 '{' 到最后一个 '}'（或 '[' 到 ']'）之间的子串解析，
//     应对模型把 JSON 包在说明文字或 markdown 代码块里的情况
//  3. （仅 ExtractJSONField）正则定位已知的顶层数组字段，括号配对截取
//     数组本身，再合成最小包装对象解析
//  4. 全部失败返回 ErrExtraction，由调用方决定兜底还是传播

// ExtractJSON 执行第 1、2 层恢复
func ExtractJSON(raw string, v interface{}) error {
	text := stripFences(strings.TrimSpace(raw))
	if text == "" {
		return fmt.Errorf("%w: empty input", ErrExtraction)
	}

	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	if sub, ok := sliceJSONValue(text); ok {
		if err := json.Unmarshal([]byte(sub), v); err == nil {
			return nil
		}
	}

	return fmt.Errorf("%w: no recoverable JSON value", ErrExtraction)
}

// ExtractJSONField 在 ExtractJSON 之上增加第 3 层：按字段名窄化捕获顶层数组
func ExtractJSONField(raw, field string, v interface{}) error {
	if err := ExtractJSON(raw, v); err == nil {
		return nil
	}

	text := stripFences(strings.TrimSpace(raw))
	arr, ok := captureArrayField(text, field)
	if !ok {
		return fmt.Errorf("%w: field %q not recoverable", ErrExtraction, field)
	}

	synthesized := fmt.Sprintf("{%q: %s}", field, arr)
	if err := json.Unmarshal([]byte(synthesized), v); err != nil {
		return fmt.Errorf("%w: field %q not recoverable", ErrExtraction, field)
	}
	return nil
}

// stripFences 去掉 ```json ... ``` 这类 markdown 代码块围栏
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// sliceJSONValue 截取文本中第一个 JSON 值（对象或数组），取先出现的那种
func sliceJSONValue(s string) (string, bool) {
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")

	start := -1
	end := -1
	switch {
	case objStart >= 0 && (arrStart < 0 || objStart < arrStart):
		start = objStart
		end = strings.LastIndex(s, "}")
	case arrStart >= 0:
		start = arrStart
		end = strings.LastIndex(s, "]")
	}

	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// captureArrayField 定位 "field": [...] 并按括号配对截取数组文本。
// 配对扫描要跳过字符串字面量，否则值里出现的方括号会破坏计数。
func captureArrayField(text, field string) (string, bool) {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(field) + `"\s*:`)
	loc := re.FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	rest := text[loc[1]:]
	start := strings.IndexByte(rest, '[')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(rest); i++ {
		c := rest[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return rest[start : i+1], true
			}
		}
	}
	return "", false
}
